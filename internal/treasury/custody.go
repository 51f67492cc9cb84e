package treasury

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	pubnub "github.com/pubnub/go/v7"
	"github.com/shopspring/decimal"

	"ticket-ledger/utils"
)

// CustodyConfig configures the external fund-custody provider.
type CustodyConfig struct {
	PNSubKey     string `json:"pn_subkey"`
	PNPubKey     string `json:"pn_pubkey"`
	PNSecretKey  string `json:"pn_secret"`
	PNUUID       string `json:"pn_uuid"`
	PNChannel    string `json:"pn_channel"`
	InstructCh   string `json:"instruct_channel"`
	Currency     string `json:"currency"`
}

// Custody settles transfers through an external fund-custody service.
// Transfer instructions are published to the custody channel; settlement
// confirmations arrive on a subscribed channel and are forwarded to the
// transaction channel, where the application confirms payments against the
// ledger. A shadow balance ledger tracks settled funds locally so Balance
// stays answerable without a round trip.
type Custody struct {
	cfg      *CustodyConfig
	pn       *pubnub.PubNub
	listener *pubnub.Listener
	shadow   *Memory
	breaker  *utils.CircuitBreaker
	txCh     chan *Transaction
}

type settlementPayload struct {
	RefID     string          `json:"refNo"`
	Payer     string          `json:"sourceAccount"`
	Payee     string          `json:"destAccount"`
	Amount    decimal.Decimal `json:"txnAmount"`
	Currency  string          `json:"sourceCurrency"`
	Timestamp int64           `json:"txnDateTime"`
}

func (p settlementPayload) toDomain() *Transaction {
	return &Transaction{
		RefID:     p.RefID,
		Payer:     p.Payer,
		Payee:     p.Payee,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Timestamp: p.Timestamp,
	}
}

// NewCustody connects to the custody service's PubNub channels and starts the
// settlement listener.
func NewCustody(ctx context.Context, cfg *CustodyConfig) (*Custody, error) {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PNUUID))
	pnCfg.SubscribeKey = cfg.PNSubKey
	pnCfg.PublishKey = cfg.PNPubKey
	pnCfg.SecretKey = cfg.PNSecretKey

	c := &Custody{
		cfg:      cfg,
		pn:       pubnub.NewPubNub(pnCfg),
		listener: pubnub.NewListener(),
		shadow:   NewMemory(),
		breaker:  utils.NewCircuitBreaker("custody-transfer"),
	}

	c.pn.AddListener(c.listener)
	c.pn.Subscribe().Channels([]string{cfg.PNChannel}).Execute()

	go c.processSubscription(ctx)

	return c, nil
}

func (c *Custody) Kind() ProviderKind { return ProviderCustody }

func (c *Custody) processSubscription(ctx context.Context) {
	for {
		select {
		case st := <-c.listener.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("custody: connected to pubnub")
			case pubnub.PNReconnectedCategory:
				slog.Info("custody: reconnected to pubnub")
			case pubnub.PNDisconnectedCategory:
				slog.Warn("custody: disconnected from pubnub")
			default:
				slog.Warn("custody: pubnub status", "category", st.Category)
			}

		case message := <-c.listener.Message:
			raw, ok := message.Message.(string)
			if !ok {
				slog.Warn("custody: unexpected settlement message type", "message", message.Message)
				continue
			}

			var p settlementPayload
			if err := json.NewDecoder(strings.NewReader(raw)).Decode(&p); err != nil {
				slog.Error("custody: decode settlement", "error", err)
				continue
			}

			tran := p.toDomain()
			c.shadow.Deposit(tran.Payee, tran.Amount)
			if c.txCh != nil {
				c.txCh <- tran
			}

		case <-ctx.Done():
			return
		}
	}
}

// Transfer publishes a transfer instruction and credits the payee's shadow
// balance. The debit side lives with the custody service, so only the credit
// is tracked locally. A publish failure means nothing was settled and nothing
// moves.
func (c *Custody) Transfer(ctx context.Context, payer, payee string, amount decimal.Decimal) error {
	instruction := map[string]any{
		"sourceAccount":  payer,
		"destAccount":    payee,
		"txnAmount":      amount.String(),
		"sourceCurrency": c.cfg.Currency,
	}

	err := c.breaker.Execute(ctx, func() error {
		_, pnStatus, err := c.pn.Publish().
			Channel(c.cfg.InstructCh).
			Message(instruction).
			Execute()
		if err != nil {
			return fmt.Errorf("custody: publish transfer instruction: %w", err)
		}
		if pnStatus.Error != nil {
			return fmt.Errorf("custody: transfer instruction rejected, status %d", pnStatus.StatusCode)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.shadow.Deposit(payee, amount)
	return nil
}

func (c *Custody) Balance(ctx context.Context, principal string) (decimal.Decimal, error) {
	return c.shadow.Balance(ctx, principal)
}

func (c *Custody) SetTransactionChannel(ch chan *Transaction) { c.txCh = ch }

func (c *Custody) Close(ctx context.Context) error {
	c.pn.UnsubscribeAll()
	return nil
}
