// Package dialog implements the conversation state machine: which input is
// expected next, which side effects a transition performs, and what gets
// rendered back. Any trigger not valid for the current state is ignored
// without side effects.
package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rraild/vuzbot/internal/bus"
	"github.com/rraild/vuzbot/internal/catalog"
	"github.com/rraild/vuzbot/internal/match"
	"github.com/rraild/vuzbot/internal/profile"
)

// ProfileStore is the persistence surface the dialog needs for user data.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	UpsertCity(ctx context.Context, userID, city string) error
	UpsertScore(ctx context.Context, userID string, subject profile.Subject, value int) error
	UpsertSpecialization(ctx context.Context, userID string, category profile.Specialization) error
	Delete(ctx context.Context, userID string) error
}

// CatalogStore is the read-only institution catalog.
type CatalogStore interface {
	ListAll(ctx context.Context) ([]catalog.Institution, error)
	GetByID(ctx context.Context, id int64) (*catalog.Institution, error)
}

type Engine struct {
	profiles ProfileStore
	catalog  CatalogStore
	sessions *Sessions
	log      *zap.Logger
}

func NewEngine(profiles ProfileStore, cat CatalogStore, log *zap.Logger) *Engine {
	return &Engine{
		profiles: profiles,
		catalog:  cat,
		sessions: NewSessions(),
		log:      log,
	}
}

// Handle processes one inbound event and returns the replies to deliver.
// A nil result means the event was ignored.
func (e *Engine) Handle(ctx context.Context, ev bus.Inbound) []bus.Outbound {
	sess := e.sessions.Get(ev.SenderID)
	if ev.IsChoice() {
		return e.handleChoice(ctx, sess, ev)
	}
	return e.handleText(ctx, sess, ev)
}

func (e *Engine) handleText(ctx context.Context, sess *Session, ev bus.Inbound) []bus.Outbound {
	// Commands and their menu labels work from any state.
	switch ev.Text {
	case "/start":
		e.sessions.Reset(ev.SenderID)
		return e.reply(ev, msgWelcome, mainMenu())
	case "/help", BtnHelp:
		return e.reply(ev, msgHelp, mainMenu())
	case "/about", BtnAbout:
		return e.reply(ev, msgAbout, mainMenu())
	case "/change_data", BtnEnterData:
		return e.startDataEntry(ctx, sess, ev)
	case BtnReturn:
		e.sessions.Reset(ev.SenderID)
		return e.reply(ev, msgBackToMain, mainMenu())
	case BtnViewData:
		return e.viewData(ctx, ev)
	case BtnStartSearch:
		sess.State = StateAwaitingBudgetChoice
		return e.reply(ev, msgAskSeatKind, budgetMenu())
	}

	switch sess.State {
	case StateConfirmClearOldData:
		switch ev.Text {
		case BtnConfirmDelete:
			if err := e.profiles.Delete(ctx, ev.SenderID); err != nil {
				return e.storeFailure(ev, "delete profile", err)
			}
			sess.State = StateChangeDataMenu
			return e.reply(ev, msgOldDataDeleted, changeDataMenu())
		case BtnDeclineDelete:
			sess.State = StateChangeDataMenu
			return e.reply(ev, msgOldDataKept, changeDataMenu())
		}

	case StateChangeDataMenu:
		switch ev.Text {
		case BtnCity:
			sess.State = StateCollectingCity
			return e.reply(ev, msgAskCity, cityMenu())
		case BtnScores:
			sess.State = StateSubjectPicker
			return e.reply(ev, msgChooseSubject, subjectsMenu())
		case BtnSpecialization:
			sess.State = StateSpecializationPicker
			return e.reply(ev, msgChooseSpecialization, specializationsMenu())
		}

	case StateCollectingCity:
		if err := e.profiles.UpsertCity(ctx, ev.SenderID, ev.Text); err != nil {
			return e.storeFailure(ev, "upsert city", err)
		}
		sess.State = StateChangeDataMenu
		return e.reply(ev, msgCitySaved, changeDataMenu())

	case StateCollectingScore:
		return e.collectScore(ctx, sess, ev)

	case StateAwaitingBudgetChoice:
		switch ev.Text {
		case BtnBudget:
			return e.search(ctx, sess, ev, match.ModeBudget)
		case BtnPaid:
			return e.search(ctx, sess, ev, match.ModePaid)
		}
	}

	// Deliberate policy: unexpected input produces no transition and no
	// side effect.
	return nil
}

func (e *Engine) handleChoice(ctx context.Context, sess *Session, ev bus.Inbound) []bus.Outbound {
	switch {
	case ev.Choice == cbClearData:
		// Inline delete from the view-data card. Wholesale erase.
		if err := e.profiles.Delete(ctx, ev.SenderID); err != nil {
			return e.storeFailure(ev, "delete profile", err)
		}
		e.sessions.Reset(ev.SenderID)
		e.log.Info("profile cleared", zap.String("user", ev.SenderID))
		return e.reply(ev, msgDataCleared, mainMenu())

	case ev.Choice == cbSave:
		sess.State = StateChangeDataMenu
		return e.reply(ev, msgDataSaved, changeDataMenu())

	case strings.HasPrefix(ev.Choice, cbSubjectPrefix) && sess.State == StateSubjectPicker:
		sub, ok := profile.ParseSubject(strings.TrimPrefix(ev.Choice, cbSubjectPrefix))
		if !ok {
			e.log.Warn("unknown subject key", zap.String("key", ev.Choice), zap.String("user", ev.SenderID))
			return nil
		}
		sess.Subject = sub
		sess.State = StateCollectingScore
		return e.reply(ev, fmt.Sprintf(msgEnterScore, sub.Label()), nil)

	case strings.HasPrefix(ev.Choice, cbSpecPrefix) && sess.State == StateSpecializationPicker:
		return e.selectSpecialization(ctx, ev)

	case strings.HasPrefix(ev.Choice, cbPagePrefix) && sess.State == StateReviewingResults:
		return e.navigate(sess, ev)

	case strings.HasPrefix(ev.Choice, cbDetailPrefix) && sess.State == StateReviewingResults:
		return e.showDetail(ctx, ev)
	}

	return nil
}

func (e *Engine) startDataEntry(ctx context.Context, sess *Session, ev bus.Inbound) []bus.Outbound {
	p, err := e.profiles.Get(ctx, ev.SenderID)
	if err != nil {
		return e.storeFailure(ev, "load profile", err)
	}
	if p.HasData() {
		sess.State = StateConfirmClearOldData
		return e.reply(ev, msgAskClearOldData, clearConfirmMenu())
	}
	sess.State = StateChangeDataMenu
	return e.reply(ev, msgNoOldData, changeDataMenu())
}

func (e *Engine) collectScore(ctx context.Context, sess *Session, ev bus.Inbound) []bus.Outbound {
	value, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return e.reply(ev, msgScoreNotNumber, nil)
	}
	if err := profile.ValidateScore(value); err != nil {
		return e.reply(ev, msgScoreOutOfRange, nil)
	}

	if err := e.profiles.UpsertScore(ctx, ev.SenderID, sess.Subject, value); err != nil {
		return e.storeFailure(ev, "upsert score", err)
	}
	e.log.Info("score saved",
		zap.String("user", ev.SenderID),
		zap.String("subject", string(sess.Subject)),
		zap.Int("score", value))

	sess.State = StateSubjectPicker
	saved := e.reply(ev, fmt.Sprintf(msgScoreSaved, sess.Subject.Label()), nil)
	next := e.reply(ev, msgChooseSubject, subjectsMenu())
	return append(saved, next...)
}

func (e *Engine) selectSpecialization(ctx context.Context, ev bus.Inbound) []bus.Outbound {
	spec, ok := profile.ParseSpecialization(ev.Choice)
	if !ok {
		// Unknown categories are logged, not silently swallowed.
		e.log.Error("unknown specialization category",
			zap.String("key", ev.Choice), zap.String("user", ev.SenderID))
		return nil
	}
	if err := e.profiles.UpsertSpecialization(ctx, ev.SenderID, spec); err != nil {
		return e.storeFailure(ev, "upsert specialization", err)
	}
	e.log.Info("specialization saved",
		zap.String("user", ev.SenderID), zap.String("category", string(spec)))
	// Re-selecting is a no-op upstream; the picker stays open either way.
	return e.reply(ev, msgSpecializationSaved, changeDataMenu())
}

func (e *Engine) search(ctx context.Context, sess *Session, ev bus.Inbound, mode match.Mode) []bus.Outbound {
	p, err := e.profiles.Get(ctx, ev.SenderID)
	if err != nil {
		return e.storeFailure(ev, "load profile", err)
	}
	if p == nil || p.Aggregate == nil {
		// Matching is never invoked without an aggregate.
		e.sessions.Reset(ev.SenderID)
		return e.reply(ev, msgNoAggregate, mainMenu())
	}

	records, err := e.catalog.ListAll(ctx)
	if err != nil {
		return e.storeFailure(ev, "list catalog", err)
	}

	matches := match.Match(*p.Aggregate, mode, records)
	if len(matches) == 0 {
		e.sessions.Reset(ev.SenderID)
		text := msgNoBudgetMatches
		if mode == match.ModePaid {
			text = msgNoPaidMatches
		}
		return e.reply(ev, text, mainMenu())
	}

	// The session keeps ids and names only; detail views reload by id.
	refs := make([]Result, len(matches))
	for i, rec := range matches {
		refs[i] = Result{ID: rec.ID, Name: rec.Name}
	}
	sess.Results = refs
	sess.PageIndex = 0
	sess.State = StateReviewingResults
	e.log.Info("search completed",
		zap.String("user", ev.SenderID),
		zap.String("mode", mode.String()),
		zap.Float64("aggregate", *p.Aggregate),
		zap.Int("matches", len(matches)))

	page := match.Paginate(refs, 0)
	return e.reply(ev, fmt.Sprintf(msgResultsHeader, listPage(page)), resultsMenu(page))
}

func (e *Engine) navigate(sess *Session, ev bus.Inbound) []bus.Outbound {
	index, err := strconv.Atoi(strings.TrimPrefix(ev.Choice, cbPagePrefix))
	if err != nil || len(sess.Results) == 0 {
		return nil
	}

	// Stale or tampered tokens are clamped to the nearest valid page.
	page := match.Paginate(sess.Results, index)
	sess.PageIndex = page.Index

	out := e.reply(ev, fmt.Sprintf(msgChooseResult, listPage(page)), resultsMenu(page))
	out[0].EditMessageID = ev.MessageID
	return out
}

func (e *Engine) showDetail(ctx context.Context, ev bus.Inbound) []bus.Outbound {
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Choice, cbDetailPrefix), 10, 64)
	if err != nil {
		return nil
	}

	rec, err := e.catalog.GetByID(ctx, id)
	if err != nil {
		return e.storeFailure(ev, "load catalog record", err)
	}
	if rec == nil {
		return e.reply(ev, msgDetailNotFound, nil)
	}
	return e.reply(ev, formatDetail(*rec), mainMenu())
}

func (e *Engine) viewData(ctx context.Context, ev bus.Inbound) []bus.Outbound {
	p, err := e.profiles.Get(ctx, ev.SenderID)
	if err != nil {
		return e.storeFailure(ev, "load profile", err)
	}
	if !p.HasData() {
		return e.reply(ev, msgNoData, nil)
	}
	return e.reply(ev, formatProfile(p), viewDataMenu())
}

// storeFailure converts an adapter fault into one generic user message. The
// underlying error never reaches the user.
func (e *Engine) storeFailure(ev bus.Inbound, op string, err error) []bus.Outbound {
	e.log.Error("store failure",
		zap.String("op", op), zap.String("user", ev.SenderID), zap.Error(err))
	return e.reply(ev, msgStoreError, nil)
}

func (e *Engine) reply(ev bus.Inbound, text string, menu *bus.Menu) []bus.Outbound {
	return []bus.Outbound{{
		Channel: ev.Channel,
		ChatID:  ev.ChatID,
		Text:    text,
		Menu:    menu,
	}}
}

// listPage renders the page's records as a numbered list.
func listPage(page match.Page[Result]) string {
	var sb strings.Builder
	for i, rec := range page.Items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, rec.Name)
	}
	return sb.String()
}

func formatDetail(rec catalog.Institution) string {
	specs := "Нет доступных специальностей"
	if labels := rec.SpecializationLabels(); len(labels) > 0 {
		specs = strings.Join(labels, ", ")
	}
	return fmt.Sprintf(
		"Название: %s\n"+
			"Количество бюджетных мест: %s\n"+
			"Количество платных мест: %s\n"+
			"Необходимое количество баллов ЕГЭ для бюджета: %s\n"+
			"Необходимое количество баллов ЕГЭ для платного: %s\n"+
			"Все специальности: %s\n"+
			"Ссылка: %s",
		rec.Name, rec.BudgetPlaces, rec.PaidPlaces,
		rec.BudgetScore, rec.PaidScore, specs, rec.URL)
}

func formatProfile(p *profile.Profile) string {
	city := "Выбранный город: не выбран"
	if p.City != "" {
		city = "Выбранный город: " + p.City
	}

	var scoreLines []string
	for _, sub := range profile.Subjects() {
		if score, ok := p.Scores[sub]; ok {
			scoreLines = append(scoreLines, fmt.Sprintf("%s: %d", sub.Label(), score))
		}
	}
	scores := "Баллы ЕГЭ: не указаны"
	if len(scoreLines) > 0 {
		scores = "Баллы ЕГЭ:\n" + strings.Join(scoreLines, "\n")
	}

	mean := "Ваш средний балл: не указан"
	if p.Aggregate != nil {
		mean = fmt.Sprintf("Ваш средний балл: %.2f", *p.Aggregate)
	}

	var specLabels []string
	for _, spec := range profile.Specializations() {
		if p.Specializations[spec] {
			specLabels = append(specLabels, spec.Label())
		}
	}
	specs := "Специализации: не выбраны"
	if len(specLabels) > 0 {
		specs = "Выбранные специализации: " + strings.Join(specLabels, ", ")
	}

	return city + "\n" + scores + "\n" + mean + "\n" + specs
}
