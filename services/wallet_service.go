package services

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"

	"qrmenu-api/apperr"
	"qrmenu-api/logger"
	"qrmenu-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	codeAttempts = 5
)

// WalletView is a user's balance together with the top-ups made to their
// code.
type WalletView struct {
	Code    string                `json:"code"`
	Balance decimal.Decimal       `json:"balance"`
	TopUps  []models.TopUpRequest `json:"top_ups"`
}

type WalletService struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewWalletService(db *gorm.DB, log *logger.Logger) *WalletService {
	return &WalletService{DB: db, Log: log}
}

// TopUp credits the wallet behind code and records the request as processed.
// TODO: accept a client request id and reject replays; resubmitting the same
// top-up currently credits twice.
func (s *WalletService) TopUp(ctx context.Context, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero, apperr.ValidationField("code", "code is required")
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperr.ValidationField("amount", "amount must be at least 0.01")
	}

	var wallet models.Wallet
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.UserCode
		if err := tx.Where("code = ?", code).First(&owner).Error; err != nil {
			return notFoundOr(err, "user code", "load user code")
		}

		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Wallet{UserID: owner.UserID, Balance: decimal.Zero}).Error
		if err != nil {
			return apperr.Internal("create wallet", err)
		}
		if err := lockForUpdate(tx).Where("user_id = ?", owner.UserID).First(&wallet).Error; err != nil {
			return apperr.Internal("lock wallet", err)
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := tx.Model(&wallet).Update("balance", wallet.Balance).Error; err != nil {
			return apperr.Internal("credit wallet", err)
		}
		if err := tx.Create(&models.TopUpRequest{Code: code, Amount: amount, Processed: true}).Error; err != nil {
			return apperr.Internal("record top-up", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, classify(err, "top up")
	}

	s.Log.Info("wallet_top_up", logger.RequestID(ctx), "wallet credited",
		slog.Uint64("user_id", uint64(wallet.UserID)),
		slog.String("amount", amount.StringFixed(2)),
	)
	return wallet.Balance, nil
}

// IssueCode returns the user's top-up code, generating one on first use.
func (s *WalletService) IssueCode(ctx context.Context, userID uint) (*models.UserCode, error) {
	db := s.DB.WithContext(ctx)
	var existing models.UserCode
	res := db.Where("user_id = ?", userID).Limit(1).Find(&existing)
	if res.Error != nil {
		return nil, apperr.Internal("load user code", res.Error)
	}
	if res.RowsAffected > 0 {
		return &existing, nil
	}

	for range codeAttempts {
		code, err := randomCode()
		if err != nil {
			return nil, apperr.Internal("generate code", err)
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserCode{UserID: userID, Code: code})
		if res.Error != nil {
			return nil, apperr.Internal("create user code", res.Error)
		}
		// A zero row count means either the code or the user already had one.
		var stored models.UserCode
		found := db.Where("user_id = ?", userID).Limit(1).Find(&stored)
		if found.Error != nil {
			return nil, apperr.Internal("load user code", found.Error)
		}
		if found.RowsAffected > 0 {
			return &stored, nil
		}
	}
	return nil, apperr.Conflict("could not allocate a unique code, try again")
}

func randomCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range codeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// GetWallet reports the balance of userID, zero when no wallet exists yet.
func (s *WalletService) GetWallet(ctx context.Context, userID uint) (*WalletView, error) {
	db := s.DB.WithContext(ctx)
	view := &WalletView{Balance: decimal.Zero, TopUps: []models.TopUpRequest{}}

	var wallet models.Wallet
	res := db.Where("user_id = ?", userID).Limit(1).Find(&wallet)
	if res.Error != nil {
		return nil, apperr.Internal("load wallet", res.Error)
	}
	if res.RowsAffected > 0 {
		view.Balance = wallet.Balance
	}

	var code models.UserCode
	res = db.Where("user_id = ?", userID).Limit(1).Find(&code)
	if res.Error != nil {
		return nil, apperr.Internal("load user code", res.Error)
	}
	if res.RowsAffected == 0 {
		return view, nil
	}
	view.Code = code.Code
	if err := db.Where("code = ?", code.Code).Order("id desc").Limit(20).Find(&view.TopUps).Error; err != nil {
		return nil, apperr.Internal("list top-ups", err)
	}
	return view, nil
}
