package flow

import (
	"context"
	"time"

	purchasemodels "stars-shop-backend/internal/features/purchase/models"
)

// PollState is the state machine of an active purchase. Pending is
// initial; every other state is terminal.
type PollState string

const (
	PollPending         PollState = "pending"
	PollCompleted       PollState = "completed"
	PollFailed          PollState = "failed"
	PollCancelled       PollState = "cancelled"
	PollErrorTerminated PollState = "error"
)

// PollResult is the terminal outcome of a poll loop.
type PollResult struct {
	State   PollState
	Message string
}

// PollHandle is a cancellable, observable polling loop for one purchase.
type PollHandle struct {
	purchaseID string
	cancel     context.CancelFunc
	done       chan struct{}
	result     PollResult
}

func (h *PollHandle) PurchaseID() string {
	return h.purchaseID
}

// Done is closed when the loop stops, terminal or cancelled.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Result is valid once Done is closed. A cancelled loop reports PollPending:
// the order was abandoned, not resolved.
func (h *PollHandle) Result() PollResult {
	select {
	case <-h.done:
		return h.result
	default:
		return PollResult{State: PollPending}
	}
}

func (h *PollHandle) Cancel() {
	h.cancel()
}

// StartPolling begins the fixed-period status poll for a purchase. Any
// previously active loop is cancelled and drained first, so two loops can
// never race on the shared status state and an abandoned order produces no
// notifications.
func (c *Controller) StartPolling(purchaseID string) *PollHandle {
	c.mu.Lock()
	previous := c.poll
	c.mu.Unlock()

	if previous != nil {
		previous.Cancel()
		<-previous.Done()
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &PollHandle{
		purchaseID: purchaseID,
		cancel:     cancel,
		done:       make(chan struct{}),
		result:     PollResult{State: PollPending},
	}

	c.mu.Lock()
	c.poll = handle
	c.mu.Unlock()

	go c.pollLoop(ctx, handle)
	return handle
}

// ActivePoll returns the current polling loop, nil when none is running.
func (c *Controller) ActivePoll() *PollHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poll == nil {
		return nil
	}
	select {
	case <-c.poll.done:
		return nil
	default:
		return c.poll
	}
}

// pollLoop re-fetches the purchase status at a fixed period until a
// terminal state. Ticks are chain-awaited: the status request completes
// before the next tick is consumed, and a tick firing mid-request is
// dropped by the ticker rather than queued, so requests never overlap.
func (c *Controller) pollLoop(ctx context.Context, handle *PollHandle) {
	defer close(handle.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := c.client.PurchaseStatus(ctx, handle.purchaseID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				handle.result = PollResult{
					State:   PollErrorTerminated,
					Message: "Ошибка проверки статуса",
				}
				c.finishPoll(handle.result, false)
				return
			}

			switch status.Status {
			case purchasemodels.StatusCompleted:
				handle.result = PollResult{
					State:   PollCompleted,
					Message: "Покупка успешно завершена!",
				}
				c.finishPoll(handle.result, true)
				return
			case purchasemodels.StatusFailed:
				handle.result = PollResult{
					State:   PollFailed,
					Message: "Ошибка: свяжитесь с поддержкой: " + c.supportURL,
				}
				c.finishPoll(handle.result, false)
				return
			case purchasemodels.StatusCancelled:
				handle.result = PollResult{
					State:   PollCancelled,
					Message: "Оплата не произошла в течение 15 минут, счет отменен.",
				}
				c.finishPoll(handle.result, false)
				return
			default:
				// still pending, keep ticking
			}
		}
	}
}

// finishPoll applies the terminal side effects: the persisted in-flight
// state is dropped, and a completed purchase additionally clears the
// payment presentation and resets the form to its defaults.
func (c *Controller) finishPoll(result PollResult, success bool) {
	if err := c.store.Clear(); err != nil {
		c.log.Error().Err(err).Msg("Failed to clear session")
	}

	if success {
		c.mu.Lock()
		c.amount = 0
		c.currency = DefaultCurrency
		c.presentation = nil
		c.mu.Unlock()
	}

	level := LevelError
	if success {
		level = LevelSuccess
	}
	c.notifier.Notify(level, result.Message)
}
