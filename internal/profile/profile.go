package profile

import (
	"errors"
	"fmt"
)

// Subject identifies a single EGE exam subject. Keys double as callback data
// and storage keys, so they must stay stable.
type Subject string

const (
	SubjectRussian     Subject = "rus"
	SubjectMath        Subject = "math"
	SubjectMathProf    Subject = "math_prof"
	SubjectPhysics     Subject = "phy"
	SubjectChemistry   Subject = "chem"
	SubjectHistory     Subject = "hist"
	SubjectSocial      Subject = "soc"
	SubjectInformatics Subject = "inf"
	SubjectBiology     Subject = "bio"
	SubjectGeography   Subject = "geo"
	SubjectEnglish     Subject = "eng"
	SubjectGerman      Subject = "ger"
	SubjectFrench      Subject = "fren"
	SubjectSpanish     Subject = "span"
	SubjectChinese     Subject = "chi"
	SubjectLiterature  Subject = "lit"
)

var subjectOrder = []Subject{
	SubjectRussian, SubjectMath, SubjectMathProf, SubjectPhysics,
	SubjectChemistry, SubjectHistory, SubjectSocial, SubjectInformatics,
	SubjectBiology, SubjectGeography, SubjectEnglish, SubjectGerman,
	SubjectFrench, SubjectSpanish, SubjectChinese, SubjectLiterature,
}

var subjectLabels = map[Subject]string{
	SubjectRussian:     "Русский",
	SubjectMath:        "Математика",
	SubjectMathProf:    "Математика профильная",
	SubjectPhysics:     "Физика",
	SubjectChemistry:   "Химия",
	SubjectHistory:     "История",
	SubjectSocial:      "Обществознание",
	SubjectInformatics: "Информатика",
	SubjectBiology:     "Биология",
	SubjectGeography:   "География",
	SubjectEnglish:     "Английский",
	SubjectGerman:      "Немецкий",
	SubjectFrench:      "Французский",
	SubjectSpanish:     "Испанский",
	SubjectChinese:     "Китайский",
	SubjectLiterature:  "Литература",
}

// Subjects returns every known subject in display order.
func Subjects() []Subject {
	out := make([]Subject, len(subjectOrder))
	copy(out, subjectOrder)
	return out
}

// Label returns the Russian display name of the subject.
func (s Subject) Label() string {
	if l, ok := subjectLabels[s]; ok {
		return l
	}
	return "Неизвестный предмет"
}

// ParseSubject resolves a subject key. The second result is false for keys
// outside the fixed enumeration.
func ParseSubject(key string) (Subject, bool) {
	s := Subject(key)
	_, ok := subjectLabels[s]
	return s, ok
}

// Specialization identifies a field-of-study category an institution may
// offer. The set is fixed at compile time; no runtime schema discovery.
type Specialization string

const (
	SpecAviation      Specialization = "spec_aviacionnye"
	SpecAgrarian      Specialization = "spec_agrarnye"
	SpecArchitecture  Specialization = "spec_arkhitekturnye"
	SpecBiological    Specialization = "spec_biologicheskie"
	SpecMilitary      Specialization = "spec_voennye"
	SpecCulture       Specialization = "spec_vuzykultury"
	SpecGeographical  Specialization = "spec_geograficheskie"
	SpecHumanities    Specialization = "spec_gumanitarnye"
	SpecDesign        Specialization = "spec_dizayna"
	SpecInformational Specialization = "spec_informacionnye"
	SpecMVD           Specialization = "spec_mvd"
	SpecMedical       Specialization = "spec_medicinckie"
	SpecMChS          Specialization = "spec_mchs"
	SpecPetroleum     Specialization = "spec_neftyanye"
	SpecPedagogical   Specialization = "spec_pedagogicheskie"
	SpecPsychological Specialization = "spec_psihologicheskie"
	SpecFood          Specialization = "spec_pishevye"
	SpecService       Specialization = "spec_servic"
	SpecSports        Specialization = "spec_sportivnye"
	SpecConstruction  Specialization = "spec_stroitelnye"
	SpecTechnical     Specialization = "spec_tekhnicheskie"
	SpecTransport     Specialization = "spec_transportnye"
	SpecEconomic      Specialization = "spec_ekonomicheskie"
	SpecLegal         Specialization = "spec_yuridicheskie"
)

var specializationOrder = []Specialization{
	SpecAviation, SpecAgrarian, SpecArchitecture, SpecBiological,
	SpecMilitary, SpecCulture, SpecGeographical, SpecHumanities,
	SpecDesign, SpecInformational, SpecMVD, SpecMedical,
	SpecMChS, SpecPetroleum, SpecPedagogical, SpecPsychological,
	SpecFood, SpecService, SpecSports, SpecConstruction,
	SpecTechnical, SpecTransport, SpecEconomic, SpecLegal,
}

var specializationLabels = map[Specialization]string{
	SpecAviation:      "Авиационные",
	SpecAgrarian:      "Аграрные",
	SpecArchitecture:  "Архитектурные",
	SpecBiological:    "Биологические",
	SpecMilitary:      "Военные",
	SpecCulture:       "Вузовской культуры",
	SpecGeographical:  "Географические",
	SpecHumanities:    "Гуманитарные",
	SpecDesign:        "Дизайна",
	SpecInformational: "Информационные",
	SpecMVD:           "МВД",
	SpecMedical:       "Медицинские",
	SpecMChS:          "МЧС",
	SpecPetroleum:     "Нефтяные",
	SpecPedagogical:   "Педагогические",
	SpecPsychological: "Психологические",
	SpecFood:          "Пищевые",
	SpecService:       "Сервис",
	SpecSports:        "Спортивные",
	SpecConstruction:  "Строительные",
	SpecTechnical:     "Технические",
	SpecTransport:     "Транспортные",
	SpecEconomic:      "Экономические",
	SpecLegal:         "Юридические",
}

// Specializations returns every known category in display order.
func Specializations() []Specialization {
	out := make([]Specialization, len(specializationOrder))
	copy(out, specializationOrder)
	return out
}

// Label returns the Russian display name of the category.
func (s Specialization) Label() string {
	return specializationLabels[s]
}

// ParseSpecialization resolves a category key. The second result is false for
// keys outside the fixed enumeration.
func ParseSpecialization(key string) (Specialization, bool) {
	s := Specialization(key)
	_, ok := specializationLabels[s]
	return s, ok
}

var (
	// ErrScoreOutOfRange is returned for scores outside [0,100].
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
	// ErrUnknownSubject is returned for subjects outside the enumeration.
	ErrUnknownSubject = errors.New("unknown subject")
	// ErrUnknownCategory is returned for categories outside the enumeration.
	ErrUnknownCategory = errors.New("unknown specialization category")
)

// Profile holds everything the bot knows about one user.
type Profile struct {
	UserID          string
	City            string
	Scores          map[Subject]int
	Aggregate       *float64
	Specializations map[Specialization]bool
}

// New returns an empty profile for the given user.
func New(userID string) *Profile {
	return &Profile{
		UserID:          userID,
		Scores:          make(map[Subject]int),
		Specializations: make(map[Specialization]bool),
	}
}

// HasData reports whether the profile carries anything worth asking the user
// about before overwriting.
func (p *Profile) HasData() bool {
	if p == nil {
		return false
	}
	return p.City != "" || len(p.Scores) > 0 || len(p.Specializations) > 0
}

// ValidateScore checks a raw score against the allowed range.
func ValidateScore(value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%w: %d", ErrScoreOutOfRange, value)
	}
	return nil
}

// Recompute derives the aggregate from a sparse score map: the mean of the
// present scores scaled by 3 (three-exam maximum composite). Returns nil for
// an empty map. The multiplier must stay exact; catalog thresholds are
// calibrated against it.
func Recompute(scores map[Subject]int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	agg := float64(sum) / float64(len(scores)) * 3
	return &agg
}

// SetScore validates and stores one subject score, then recomputes the
// aggregate. On validation failure the profile is left untouched.
func (p *Profile) SetScore(subject Subject, value int) error {
	if _, ok := ParseSubject(string(subject)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}
	if err := ValidateScore(value); err != nil {
		return err
	}
	if p.Scores == nil {
		p.Scores = make(map[Subject]int)
	}
	p.Scores[subject] = value
	p.Aggregate = Recompute(p.Scores)
	return nil
}

// Select marks a specialization category as chosen. Re-selecting an already
// chosen category is a no-op, not a toggle.
func (p *Profile) Select(category Specialization) error {
	if _, ok := ParseSpecialization(string(category)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if p.Specializations == nil {
		p.Specializations = make(map[Specialization]bool)
	}
	p.Specializations[category] = true
	return nil
}
