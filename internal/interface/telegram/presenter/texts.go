// Package presenter renders the bot's user-facing texts and keyboards.
// All operator-visible strings live here, in Ukrainian, so handlers and
// flows stay free of copy.
package presenter

// Загальні тексти.
const (
	TextWelcome = "Вітаю! Я допомагаю вести облік занять та оплат.\n\n" +
		"Команди:\n" +
		"/addlesson — додати заняття\n" +
		"/timetable — розклад на тиждень\n" +
		"/payment — оплата від суми\n" +
		"/addpayment — оплата покроково\n" +
		"/balance — баланс занять\n" +
		"/dashboard — підсумки місяця\n" +
		"/settings — діти та налаштування\n" +
		"/cancel — скасувати поточну дію"

	TextHelp = "Як користуватися ботом:\n\n" +
		"<b>Заняття</b>\n" +
		"/addlesson додає заняття: дитина → дата → час. Після створення можна " +
		"увімкнути повтор щотижня на 4 тижні вперед.\n" +
		"/timetable показує розклад на 7 днів з кнопками «проведено» та «скасовано».\n\n" +
		"<b>Оплати</b>\n" +
		"/payment — швидкий шлях: дитина → сума. Сума має бути кратною вартості заняття.\n" +
		"/addpayment — повний шлях: кількість занять, сума, дата, нотатка.\n\n" +
		"<b>Підсумки</b>\n" +
		"/balance — скільки занять оплачено наперед чи заборговано по кожній дитині.\n" +
		"/dashboard — проведені заняття та дохід за поточний місяць.\n\n" +
		"Будь-яку розпочату дію можна перервати через /cancel."

	TextNoActiveAction   = "Немає активної дії."
	TextUnknownCommand   = "Невідома команда. Спробуйте /help."
	TextUnexpectedInput  = "Я не зрозумів. Скористайтеся командою з меню або /help."
	TextGenericError     = "Сталася помилка. Спробуйте ще раз за хвилину."
	TextNoChildren       = "Поки що немає жодної дитини. Додайте першу через /settings."
	TextChildGone        = "Цю дитину не знайдено. Можливо, її видалили."
	TextCancelled        = "Дію скасовано."
	TextUpdated          = "Оновлено"
	TextStaleButton      = "Ця кнопка вже неактуальна."
	TextBtnCancel        = "✖️ Скасувати"
	TextBtnViewToday     = "Сьогодні"
	TextBtnViewTomorrow  = "Завтра"
	TextBtnViewWeek      = "Тиждень"
)

// Тексти майстра додавання заняття.
const (
	TextAskLessonChild = "Оберіть дитину для заняття:"
	TextAskLessonDate  = "Оберіть дату або введіть у форматі ДД.ММ чи ДД.ММ.РРРР:"
	TextAskStartTime   = "Введіть час початку у форматі ГГ:ХХ (наприклад, 15:30):"
	TextAskEndTime     = "Оберіть або введіть час завершення:"
	TextAskRepeat      = "Повторювати це заняття щотижня (4 тижні вперед)?"

	TextBadDate          = "Не розумію дату. Введіть ДД.ММ або ДД.ММ.РРРР."
	TextBadTime          = "Не розумію час. Введіть у форматі ГГ:ХХ."
	TextEndNotAfter      = "Час завершення має бути пізнішим за час початку."
	TextBtnRepeatYes     = "🔁 Так, щотижня"
	TextBtnRepeatNo      = "Ні, лише одне"
	TextBtnConfirmRepeat = "✅ Підтвердити"
)

// Тексти майстрів оплати.
const (
	TextAskPaymentChild    = "Оберіть дитину, за яку внесено оплату:"
	TextAskPaymentAmount   = "Введіть суму оплати:"
	TextAskLessonsCount    = "Скільки занять купує ця оплата? Введіть число:"
	TextAskPaymentDate     = "Оберіть дату оплати або введіть її:"
	TextAskPaymentNote     = "Додайте нотатку до оплати або пропустіть:"
	TextBadAmount          = "Не розумію суму. Введіть додатне число, наприклад 1500 або 1500.50."
	TextBadLessonsCount    = "Кількість занять має бути цілим числом від 1."
	TextPriceNotSet        = "Для цієї дитини не задано вартість заняття, тож оплату від суми порахувати неможливо. Задайте ціну в /settings або скористайтеся /addpayment."
	TextBtnSkipNote        = "Пропустити"
	TextBtnConfirmPayment  = "✅ Зберегти"
)

// Тексти керування дітьми.
const (
	TextSettingsMenu   = "Налаштування. Що зробити?"
	TextAskChildName   = "Введіть ім'я дитини:"
	TextAskChildAge    = "Введіть вік (від 0 до 18):"
	TextAskChildPrice  = "Введіть вартість одного заняття (0 — не задавати):"
	TextAskEditChild   = "Оберіть дитину для редагування:"
	TextAskArchive     = "Оберіть: 📦 — в архів, ↩️ — повернути з архіву."
	TextAskDelete      = "Оберіть, кого видалити назавжди. Видалення можливе лише без збережених занять та оплат."
	TextAskEditField   = "Що змінити?"
	TextAskNewValue    = "Введіть нове значення:"
	TextBadChildName   = "Ім'я не може бути порожнім (до 100 символів)."
	TextBadChildAge    = "Вік має бути цілим числом від 0 до 18."
	TextBadChildPrice  = "Вартість має бути невід'ємним числом."
	TextChildInUse     = "Видалити неможливо: у дитини є збережені заняття чи оплати. Скористайтеся архівом."
	TextChildDeleted   = "Запис видалено."
	TextNothingToEdit  = "Немає дітей для редагування."

	TextBtnAddChild    = "➕ Додати дитину"
	TextBtnEditChild   = "✏️ Редагувати"
	TextBtnArchive     = "📦 Архів"
	TextBtnDeleteChild = "🗑 Видалити"
	TextBtnListMembers = "📋 Список дітей"
	TextBtnFieldName   = "Ім'я"
	TextBtnFieldAge    = "Вік"
	TextBtnFieldPrice  = "Вартість"
)
