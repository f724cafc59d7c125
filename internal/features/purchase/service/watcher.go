package service

import (
	"time"

	"stars-shop-backend/internal/features/purchase/models"
	"stars-shop-backend/internal/platform/cryptopay"
)

const (
	reasonTimeout        = "время ожидания оплаты (15 минут) истекло"
	reasonInvoiceExpired = "счет истек или был отменен"
)

// startWatcher launches the payment watcher for a purchase. The registry
// guarantees at most one watcher per purchase id.
func (s *purchaseService) startWatcher(purchase *models.Purchase) {
	if _, loaded := s.watching.LoadOrStore(purchase.ID, struct{}{}); loaded {
		return
	}

	s.wg.Add(1)
	go s.watch(purchase)
}

// watch polls the payment source until the purchase is paid, its payment
// window expires, or the service shuts down. A failed check is logged and
// retried on the next tick; only the window deadline gives up.
func (s *purchaseService) watch(purchase *models.Purchase) {
	defer s.wg.Done()
	defer s.watching.Delete(purchase.ID)

	deadline := purchase.CreatedAt.Add(s.paymentWindow)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				s.cancelPurchase(purchase, reasonTimeout)
				return
			}

			paid, terminal := s.checkPayment(purchase)
			if paid {
				s.deliver(purchase)
				return
			}
			if terminal {
				s.cancelPurchase(purchase, reasonInvoiceExpired)
				return
			}
		}
	}
}

// checkPayment returns (paid, terminal). terminal means the payment source
// itself declared the purchase unpayable (expired invoice).
func (s *purchaseService) checkPayment(purchase *models.Purchase) (bool, bool) {
	switch purchase.PayMode {
	case models.PayModeTONTransfer:
		received, err := s.direct.PaymentReceived(s.ctx, purchase.ID, purchase.Price)
		if err != nil {
			s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("TON payment check failed")
			return false, false
		}
		return received, false

	default:
		invoice, err := s.invoices.GetInvoice(s.ctx, purchase.InvoiceID)
		if err != nil {
			s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Invoice check failed")
			return false, false
		}
		switch invoice.Status {
		case cryptopay.InvoiceStatusPaid:
			return true, false
		case cryptopay.InvoiceStatusExpired:
			return false, true
		default:
			return false, false
		}
	}
}

func (s *purchaseService) deliver(purchase *models.Purchase) {
	s.log.Info().Str("purchase_id", purchase.ID).Msg("Payment received, delivering stars")

	transactionID, err := s.deliverer.BuyStars(s.ctx, purchase.Amount, purchase.RecipientUsername)
	if err != nil {
		s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Star delivery failed")
		if uerr := s.repo.UpdateStatus(s.ctx, purchase.ID, models.StatusFailed, "", err.Error()); uerr != nil {
			s.log.Error().Err(uerr).Str("purchase_id", purchase.ID).Msg("Failed to mark purchase failed")
		}
		s.notifier.PurchaseFailed(s.ctx, purchase.UserID, purchase.ID, purchase.Amount, err.Error())
		return
	}

	if err := s.repo.UpdateStatus(s.ctx, purchase.ID, models.StatusCompleted, transactionID, ""); err != nil {
		s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Failed to mark purchase completed")
	}
	if err := s.stats.RecordStarsSent(s.ctx, purchase.Amount); err != nil {
		s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Failed to record statistics")
	}

	s.log.Info().
		Str("purchase_id", purchase.ID).
		Str("transaction_id", transactionID).
		Msg("Stars delivered")

	s.notifier.PurchaseCompleted(s.ctx, purchase.UserID, purchase.ID, purchase.Amount, purchase.RecipientUsername)
}

func (s *purchaseService) cancelPurchase(purchase *models.Purchase, reason string) {
	s.log.Warn().Str("purchase_id", purchase.ID).Str("reason", reason).Msg("Purchase cancelled")

	if err := s.repo.UpdateStatus(s.ctx, purchase.ID, models.StatusCancelled, "", reason); err != nil {
		s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Failed to mark purchase cancelled")
	}

	if purchase.PayMode == models.PayModeInvoice && purchase.InvoiceID != 0 {
		if err := s.invoices.DeleteInvoice(s.ctx, purchase.InvoiceID); err != nil {
			s.log.Error().Err(err).Str("purchase_id", purchase.ID).Msg("Failed to delete invoice")
		}
	}

	s.notifier.PurchaseCancelled(s.ctx, purchase.UserID, purchase.ID, purchase.Amount, reason)
}
