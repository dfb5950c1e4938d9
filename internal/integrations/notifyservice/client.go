package notifyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с NotifyService
// Доставка уведомлений best-effort: доменный переход к моменту отправки
// уже закоммичен, поэтому ошибки доставки логируются вызывающей
// стороной и никогда не откатывают переход
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента NotifyService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SendBookingEvent отправляет снимок бронирования после перехода
func (c *Client) SendBookingEvent(ctx context.Context, event *BookingEvent) error {
	event.EventID = uuid.NewString()
	event.EventType = "booking_changed"
	return c.post(ctx, "/internal/events/bookings", event)
}

// SendSlotEvent отправляет изменение статуса слота
func (c *Client) SendSlotEvent(ctx context.Context, event *SlotEvent) error {
	event.EventID = uuid.NewString()
	event.EventType = "slot_changed"
	return c.post(ctx, "/internal/events/slots", event)
}

// SendUserNotice отправляет текстовое уведомление пользователю
func (c *Client) SendUserNotice(ctx context.Context, userID int64, message string) error {
	notice := &UserNotice{
		EventID: uuid.NewString(),
		UserID:  userID,
		Message: message,
	}
	return c.post(ctx, "/internal/notices", notice)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal payload: %v", ErrInternal, err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusCreated:
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}
