package bot

// Texts sent to users. Everything the bot says lives here.
const (
	msgConfirmation = "Ти став біднішим на: %s"
	msgSheetLink    = "Твоя табличка з витратами: %s"
	msgRetry        = "Надішли заново. Обробка не успішна."
	msgUnrecognized = "Повідомлення не дійсне. Отримали текст: %s."
	msgNoContent    = "Немає даних для аналізу"
	msgCapacity     = "Немає вільного місця у таблиці"
	msgGeneric      = "Виникла помилка під час обробки повідомлення."

	msgHelp = `Надішли фото чека, голосове або текст на кшталт "кава 55 грн", і я запишу витрату у твою табличку.

/start - створити табличку
/link - отримати посилання на табличку
/help - ця довідка`
)

// maxEchoRunes bounds extracted text quoted back to the user, keeping replies
// under Telegram's 4096 character message limit.
const maxEchoRunes = 3500

// Commands the bot answers to.
const (
	cmdStart = "start"
	cmdLink  = "link"
	cmdHelp  = "help"
)
