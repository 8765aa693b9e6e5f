package httptransport

import (
	"time"

	"tripgate/internal/domain"
)

type entryDTO struct {
	ID            string                   `json:"id"`
	DestinationID string                   `json:"destination_id"`
	Status        string                   `json:"status"`
	Completion    domain.CompletionMetrics `json:"completion"`
	DisplayStatus string                   `json:"display_status,omitempty"`
	LastUpdatedAt time.Time                `json:"last_updated_at"`
}

func entryResponse(r *domain.EntryRecord) entryDTO {
	return entryDTO{
		ID:            r.ID.String(),
		DestinationID: string(r.DestinationID),
		Status:        string(r.Status),
		Completion:    r.Completion,
		DisplayStatus: r.DisplayStatus,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

type cardDTO struct {
	ID            string     `json:"id"`
	EntryID       string     `json:"entry_id"`
	DestinationID string     `json:"destination_id"`
	ArrCardNo     string     `json:"arr_card_no,omitempty"`
	QRUri         string     `json:"qr_uri,omitempty"`
	PDFPath       string     `json:"pdf_path,omitempty"`
	ArrivalDate   time.Time  `json:"arrival_date"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	IsSuperseded  bool       `json:"is_superseded"`
	SupersededAt  *time.Time `json:"superseded_at,omitempty"`
}

func cardResponse(s *domain.ArrivalCardSubmission) cardDTO {
	return cardDTO{
		ID:            s.ID.String(),
		EntryID:       s.EntryID.String(),
		DestinationID: string(s.DestinationID),
		ArrCardNo:     s.ArrCardNo,
		QRUri:         s.QRUri,
		PDFPath:       s.PDFPath,
		ArrivalDate:   s.ArrivalDate,
		SubmittedAt:   s.SubmittedAt,
		Method:        string(s.Method),
		Status:        string(s.Status),
		RetryCount:    s.RetryCount,
		IsSuperseded:  s.IsSuperseded,
		SupersededAt:  s.SupersededAt,
	}
}

type fundDTO struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	PhotoURI string `json:"photo_uri,omitempty"`
}

func fundResponse(f *domain.FundItem) fundDTO {
	return fundDTO{
		ID:       f.ID.String(),
		Type:     f.Type,
		Amount:   f.Amount,
		Currency: f.Currency,
		PhotoURI: f.PhotoURI,
	}
}
