package dialog

// Button labels and message texts. The label tables are fixed; there is no
// runtime localization.
const (
	BtnStartSearch    = "Начать поиск"
	BtnEnterData      = "Внести данные"
	BtnHelp           = "Что делать?"
	BtnAbout          = "О нас"
	BtnViewData       = "Просмотреть данные"
	BtnConfirmDelete  = "Да, удалить старые данные"
	BtnDeclineDelete  = "Нет, оставить старые данные"
	BtnCity           = "Город"
	BtnScores         = "Баллы ЕГЭ"
	BtnSpecialization = "Специальность вуза"
	BtnReturn         = "Вернуться в начало"
	BtnBudget         = "Бюджет"
	BtnPaid           = "Платное"
	BtnSave           = "Сохранить данные"
	BtnClearData      = "Удалить данные"
	BtnPrevPage       = "Назад"
	BtnNextPage       = "Вперед"
)

// Callback data tokens and prefixes.
const (
	cbSave          = "save"
	cbClearData     = "clear_data"
	cbSubjectPrefix = "sub_"
	cbSpecPrefix    = "spec_"
	cbPagePrefix    = "page_"
	cbDetailPrefix  = "university_"
)

const (
	msgWelcome = "Добро пожаловать, здесь мы поможем тебе найти университет по твоим " +
		"баллам ЕГЭ.\nВоспользуйся /help если что-то непонятно!"
	msgHelp = "1. Воспользуйся коммандой /change_data, чтобы внести или " +
		"изменить свои баллы по ЕГЭ\n" +
		"2. Теперь нажми на кнопку Начать поиск и ожидай результата"
	msgAbout = "В случае технических сбоев, либо некорректности данных " +
		"обращайтесь к @rRaild\n\n" +
		"Данные о ВУЗах были взяты с сайта vuzopedia.com\n" +
		"Автор не преследует цели присвоить себе какие-либо данные!\n\n" +
		"Приятного пользования!"

	msgAskClearOldData = "Хотите удалить старые данные?"
	msgNoOldData       = "Старые данные не найдены."
	msgOldDataDeleted  = "Старые данные удалены. Что вы хотите изменить?"
	msgOldDataKept     = "Старые данные сохранены. Что вы хотите изменить?"
	msgDataCleared     = "Данные успешно удалены."
	msgNoData          = "Данные не найдены."

	msgAskCity   = "Введите ваш город:"
	msgCitySaved = "Вы успешно сохранили свой город"

	msgChooseSubject   = "Выберите предмет для ввода баллов:"
	msgEnterScore      = "Введите баллы для предмета %s:"
	msgScoreSaved      = "Баллы для предмета %s сохранены.\nВыберите следующий предмет."
	msgScoreOutOfRange = "Пожалуйста, введите числовое значение, не превышающее 100."
	msgScoreNotNumber  = "Пожалуйста, введите корректное числовое значение."
	msgDataSaved       = "Данные успешно сохранены!"

	msgChooseSpecialization = "Выберите специальность:"
	msgSpecializationSaved  = "Специальность успешно сохранена!"

	msgBackToMain = "Вы вернулись в главное меню."

	msgAskSeatKind     = "На какие места вы рассчитываете?"
	msgNoAggregate     = "У вас нет данных о средних баллах. Пожалуйста, введите данные."
	msgNoBudgetMatches = "Не найдено вузов, соответствующих вашим средним баллам для бюджета."
	msgNoPaidMatches   = "Не найдено вузов, соответствующих вашим средним баллам для платного."
	msgResultsHeader   = "Подходящие университеты:\n%s"
	msgChooseResult    = "Выберите нужный вам ВУЗ:\n%s"
	msgDetailNotFound  = "Университет не найден."

	msgStoreError = "Произошла ошибка. Попробуйте позже."
)
