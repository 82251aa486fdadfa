package booking

import "errors"

var (
	// ErrUnreachableChannel: код не удалось отправить через SMS-шлюз.
	ErrUnreachableChannel = errors.New("verification channel unreachable")

	// ErrInvalidOrExpiredCode: код не совпал или истёк. Попытка не
	// расходует код, ввод можно повторить.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")

	// ErrSlotNoLongerAvailable: слот занят между показом и подтверждением.
	ErrSlotNoLongerAvailable = errors.New("slot no longer available")

	// ErrUnknownService: услуга не найдена или неактивна.
	ErrUnknownService = errors.New("unknown service")

	// ErrRateLimited: превышен лимит отправки кодов на номер.
	ErrRateLimited = errors.New("verification send limit exceeded")

	// ErrProtocolState: операция вызвана не из того состояния протокола.
	ErrProtocolState = errors.New("invalid protocol state")

	// ErrPastSlot / ErrDateTooFar: запрошенное время вне окна записи.
	ErrPastSlot   = errors.New("slot is in the past")
	ErrDateTooFar = errors.New("date is beyond the booking window")

	// ErrSlotNotOffered: время не совпадает ни с одним слотом расписания.
	ErrSlotNotOffered = errors.New("slot is not offered for this date")
)
