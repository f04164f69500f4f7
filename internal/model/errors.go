package model

import (
	"errors"
	"fmt"
)

// ErrNotFound возвращается, если сущность с указанным идентификатором не найдена.
var ErrNotFound = errors.New("not found")

var (
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrMessageNotFound возвращается, если сообщение не найдено в заказе.
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	// ErrServiceNotFound возвращается, если услуга отсутствует в каталоге.
	ErrServiceNotFound = fmt.Errorf("service %w", ErrNotFound)
)

// ErrIllegalTransition возвращается при попытке недопустимого перехода статуса.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrOrderClosed возвращается при изменении заказа в терминальном статусе.
var ErrOrderClosed = fmt.Errorf("order is closed: %w", ErrIllegalTransition)

var (
	// ErrInvalidCheckoutState возвращается при оформлении пустой корзины или без данных покупателя.
	ErrInvalidCheckoutState = errors.New("invalid checkout state")
	// ErrPaymentFailed возвращается, если платёжная система отклонила списание.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrServiceUnavailable возвращается при добавлении в корзину неактивной услуги.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrInvalidService возвращается при некорректных данных услуги.
	ErrInvalidService = errors.New("invalid service")
	// ErrInvalidMessage возвращается при пустом тексте сообщения.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownStatus возвращается при разборе неизвестного статуса.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrUnknownCategory возвращается при разборе неизвестной категории услуг.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownSender возвращается при разборе неизвестного автора сообщения.
	ErrUnknownSender = errors.New("unknown sender")
)
