package hypixel

import (
	"time"

	"github.com/tidwall/gjson"
)

// BankAction is the direction of a bank transaction
type BankAction string

const (
	BankDeposit  BankAction = "DEPOSIT"
	BankWithdraw BankAction = "WITHDRAW"
)

// SkyblockBank is a profile's shared coin bank
type SkyblockBank struct {
	Balance *float64 `json:"balance,omitempty"`
	// Transactions holds at most the 50 most recent entries, oldest first
	Transactions []BankTransaction `json:"transactions,omitempty"`
}

// BankTransaction is one deposit or withdrawal
type BankTransaction struct {
	Amount *float64    `json:"amount,omitempty"`
	Time   *time.Time  `json:"time,omitempty"`
	Action *BankAction `json:"action,omitempty"`
	// Initiator is the display name as recorded, possibly with color codes or "Bank Interest"
	Initiator *string `json:"initiator,omitempty"`
}

func mapSkyblockBank(raw gjson.Result) (*SkyblockBank, error) {
	f := newFields("SkyblockBank", raw)
	bank := &SkyblockBank{Balance: f.float("balance")}

	for _, r := range f.array("transactions") {
		tf := newFields("BankTransaction", r)
		tx := BankTransaction{
			Amount:    tf.float("amount"),
			Time:      tf.millis("timestamp"),
			Initiator: tf.str("initiator_name"),
		}
		if tx.Time == nil {
			tx.Time = tf.millis("time")
		}
		if action := tf.str("action"); action != nil {
			a := BankAction(*action)
			tx.Action = &a
		}
		f.record(tf.err())
		bank.Transactions = append(bank.Transactions, tx)
	}

	if err := f.err(); err != nil {
		return nil, err
	}
	return bank, nil
}
