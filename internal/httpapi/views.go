package httpapi

import "github.com/Pujan77/expense-tracker-backend/internal/models"

// JSON views for domain models. The models themselves carry no json tags;
// the wire shape belongs to this layer.

type familyView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	HeadID    string   `json:"head_id"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func familyJSON(f *models.Family) familyView {
	return familyView{
		ID:        f.ID,
		Name:      f.Name,
		HeadID:    f.HeadID,
		Members:   f.Members,
		CreatedAt: f.CreatedAt,
	}
}

type shareView struct {
	UserID string  `json:"user_id"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
}

type expenseView struct {
	ID          string      `json:"id"`
	FamilyID    string      `json:"family_id"`
	PayerID     string      `json:"payer_id"`
	Description string      `json:"description"`
	Category    string      `json:"category,omitempty"`
	Amount      float64     `json:"amount"`
	SpentAt     int64       `json:"spent_at"`
	Shares      []shareView `json:"shares"`
	CreatedAt   int64       `json:"created_at"`
}

func expenseJSON(e *models.Expense) expenseView {
	shares := make([]shareView, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = shareView{UserID: s.UserID, Type: string(s.Type), Value: s.Value}
	}
	return expenseView{
		ID:          e.ID,
		FamilyID:    e.FamilyID,
		PayerID:     e.PayerID,
		Description: e.Description,
		Category:    e.Category,
		Amount:      e.Amount,
		SpentAt:     e.SpentAt,
		Shares:      shares,
		CreatedAt:   e.CreatedAt,
	}
}

type transactionView struct {
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Amount     float64 `json:"amount"`
	Settled    bool    `json:"settled"`
	SettledAt  int64   `json:"settled_at,omitempty"`
}

type recordView struct {
	ID           string            `json:"id"`
	FamilyID     string            `json:"family_id"`
	PeriodStart  int64             `json:"period_start"`
	PeriodEnd    int64             `json:"period_end"`
	Status       string            `json:"status"`
	Transactions []transactionView `json:"transactions"`
	IsFinalized  bool              `json:"is_finalized"`
	FinalizedAt  int64             `json:"finalized_at,omitempty"`
	CreatedAt    int64             `json:"created_at"`
	UpdatedAt    int64             `json:"updated_at"`
}

func recordJSON(r *models.SettlementRecord) recordView {
	txns := make([]transactionView, len(r.Transactions))
	for i, t := range r.Transactions {
		txns[i] = transactionView{
			FromUserID: t.FromUserID,
			ToUserID:   t.ToUserID,
			Amount:     t.Amount,
			Settled:    t.Settled,
			SettledAt:  t.SettledAt,
		}
	}
	return recordView{
		ID:           r.ID,
		FamilyID:     r.FamilyID,
		PeriodStart:  r.Period.Start,
		PeriodEnd:    r.Period.End,
		Status:       string(r.Status()),
		Transactions: txns,
		IsFinalized:  r.IsFinalized,
		FinalizedAt:  r.FinalizedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
