package ton

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"

	"stars-shop-backend/internal/common/logger"
)

// Client watches the shop wallet for direct TON payments and builds
// ton:// transfer links for the inline payment presentation.
type Client struct {
	api    ton.APIClientWrapped
	wallet *address.Address
	log    zerolog.Logger
}

// Connect dials the lite servers from the global config and validates the
// shop wallet address.
func Connect(ctx context.Context, configURL, wallet string) (*Client, error) {
	addr, err := address.ParseAddr(wallet)
	if err != nil {
		return nil, fmt.Errorf("parse shop wallet %q: %w", wallet, err)
	}

	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("connect to lite servers: %w", err)
	}

	return &Client{
		api:    ton.NewAPIClient(pool).WithRetry(),
		wallet: addr,
		log:    logger.With("ton"),
	}, nil
}

func coins(price float64) (tlb.Coins, error) {
	return tlb.FromTON(strconv.FormatFloat(price, 'f', 9, 64))
}

// TransferLink builds a ton:// URI paying the given TON amount to the shop
// wallet with the purchase id as the transfer comment. The comment is how
// an incoming payment is matched back to its purchase.
func (c *Client) TransferLink(price float64, comment string) (string, error) {
	amount, err := coins(price)
	if err != nil {
		return "", fmt.Errorf("convert amount: %w", err)
	}

	return fmt.Sprintf("ton://transfer/%s?amount=%s&text=%s",
		c.wallet.String(), amount.Nano().String(), url.QueryEscape(comment)), nil
}

// PaymentReceived reports whether the shop wallet has received an incoming
// transfer of at least price TON carrying the given comment. It inspects
// the most recent transactions only; the payment window is short enough
// that a matching transfer cannot fall off the scanned tail.
func (c *Client) PaymentReceived(ctx context.Context, comment string, price float64) (bool, error) {
	min, err := coins(price)
	if err != nil {
		return false, fmt.Errorf("convert amount: %w", err)
	}

	master, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return false, fmt.Errorf("masterchain info: %w", err)
	}

	acc, err := c.api.GetAccount(ctx, master, c.wallet)
	if err != nil {
		return false, fmt.Errorf("get account: %w", err)
	}
	if !acc.IsActive || acc.LastTxLT == 0 {
		return false, nil
	}

	txs, err := c.api.ListTransactions(ctx, c.wallet, 32, acc.LastTxLT, acc.LastTxHash)
	if err != nil {
		return false, fmt.Errorf("list transactions: %w", err)
	}

	for _, tx := range txs {
		if tx.IO.In == nil || tx.IO.In.MsgType != tlb.MsgTypeInternal {
			continue
		}
		in := tx.IO.In.AsInternal()
		if in.Comment() != comment {
			continue
		}
		if in.Amount.Nano().Cmp(min.Nano()) >= 0 {
			c.log.Info().
				Str("comment", comment).
				Str("amount", in.Amount.String()).
				Msg("Incoming payment matched")
			return true, nil
		}
	}

	return false, nil
}
