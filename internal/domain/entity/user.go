package entity

import "time"

// User is the identity projection this service needs. Registration, KYC and
// profile management live in an external auth service.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	Username  string    `json:"username" firestore:"username"`
	KYCStatus string    `json:"kyc_status,omitempty" firestore:"kycStatus,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
