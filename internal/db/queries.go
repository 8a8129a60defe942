package db

import (
	"context"
	"errors"
	"time"

	"grievance/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

const complaintColumns = `complaint_id, service_type, complaint_type, complaint_text,
	email, email_verified, tracking_number, incident_date, city, pincode,
	ai_category, department, sentiment_score, priority_level, auto_response,
	final_response, status, created_at, verified_at, resolved_at`

func scanComplaint(row pgx.Row) (model.Complaint, error) {
	var c model.Complaint
	err := row.Scan(
		&c.ComplaintID, &c.ServiceType, &c.ComplaintType, &c.ComplaintText,
		&c.Email, &c.EmailVerified, &c.TrackingNumber, &c.IncidentDate, &c.City, &c.Pincode,
		&c.AICategory, &c.Department, &c.SentimentScore, &c.PriorityLevel, &c.AutoResponse,
		&c.FinalResponse, &c.Status, &c.CreatedAt, &c.VerifiedAt, &c.ResolvedAt,
	)
	return c, notFound(err)
}

// notFound translates the pgx no-rows sentinel into the domain error so
// callers never depend on the driver.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

type CreateComplaintParams struct {
	ComplaintID    string
	ServiceType    string
	ComplaintType  string
	ComplaintText  *string
	Email          string
	TrackingNumber *string
	IncidentDate   *time.Time
	City           *string
	Pincode        *string
}

// Complaint queries

func (q *Queries) CreateComplaint(ctx context.Context, p CreateComplaintParams) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`INSERT INTO complaints (
			complaint_id, service_type, complaint_type, complaint_text,
			email, tracking_number, incident_date, city, pincode, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING_EMAIL_VERIFICATION')
		RETURNING `+complaintColumns,
		p.ComplaintID, p.ServiceType, p.ComplaintType, p.ComplaintText,
		p.Email, p.TrackingNumber, p.IncidentDate, p.City, p.Pincode,
	))
}

func (q *Queries) GetComplaintByID(ctx context.Context, complaintID string) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE complaint_id = $1`,
		complaintID,
	))
}

func (q *Queries) ActivateComplaint(ctx context.Context, complaintID string) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`UPDATE complaints
		SET email_verified = TRUE, status = 'ACTIVE', verified_at = NOW()
		WHERE complaint_id = $1
		RETURNING `+complaintColumns,
		complaintID,
	))
}

func (q *Queries) SaveTriage(ctx context.Context, complaintID string, v model.Verdict) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`UPDATE complaints
		SET ai_category = $2, department = $3, sentiment_score = $4,
			priority_level = $5, auto_response = $6
		WHERE complaint_id = $1
		RETURNING `+complaintColumns,
		complaintID, v.AICategory, v.Department, v.SentimentScore,
		string(v.PriorityLevel), v.AutoResponse,
	))
}

func (q *Queries) UpdateComplaintStatus(ctx context.Context, complaintID string, status model.Status) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`UPDATE complaints
		SET status = $2::VARCHAR,
			resolved_at = CASE WHEN $2::VARCHAR = 'RESOLVED' THEN NOW() ELSE NULL END
		WHERE complaint_id = $1
		RETURNING `+complaintColumns,
		complaintID, string(status),
	))
}

// ResolveComplaint stores the final response and closes the complaint in
// a single statement so the resolution never partially applies.
func (q *Queries) ResolveComplaint(ctx context.Context, complaintID, finalResponse string) (model.Complaint, error) {
	return scanComplaint(q.Pool.QueryRow(ctx,
		`UPDATE complaints
		SET final_response = $2, status = 'RESOLVED', resolved_at = NOW()
		WHERE complaint_id = $1
		RETURNING `+complaintColumns,
		complaintID, finalResponse,
	))
}

// ListComplaints returns the officer dashboard listing: everything past
// email verification, most urgent priority first, newest first within a
// priority band.
func (q *Queries) ListComplaints(ctx context.Context) ([]model.Complaint, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+complaintColumns+`
		FROM complaints
		WHERE status != 'PENDING_EMAIL_VERIFICATION'
		ORDER BY
			CASE priority_level
				WHEN 'CRITICAL' THEN 1
				WHEN 'HIGH' THEN 2
				WHEN 'MEDIUM' THEN 3
				WHEN 'LOW' THEN 4
				ELSE 5
			END,
			created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := make([]model.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

// OTP queries. Two tables share one shape: otp_verifications is keyed by
// complaint_id, registration_otp_verifications by email.

func (q *Queries) createOTP(ctx context.Context, table, keyCol, key, code string, expiresAt time.Time) (int64, error) {
	var id int64
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO `+table+` (`+keyCol+`, otp, expires_at) VALUES ($1, $2, $3) RETURNING id`,
		key, code, expiresAt,
	).Scan(&id)
	return id, err
}

func (q *Queries) findValidOTP(ctx context.Context, table, keyCol, key, code string) (model.OTPRecord, error) {
	var r model.OTPRecord
	err := q.Pool.QueryRow(ctx,
		`SELECT id, `+keyCol+`, otp, expires_at, verified, created_at
		FROM `+table+`
		WHERE `+keyCol+` = $1 AND otp = $2 AND verified = FALSE AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1`,
		key, code,
	).Scan(&r.ID, &r.Key, &r.Code, &r.ExpiresAt, &r.Verified, &r.CreatedAt)
	return r, notFound(err)
}

func (q *Queries) markOTPVerified(ctx context.Context, table string, id int64) error {
	_, err := q.Pool.Exec(ctx, `UPDATE `+table+` SET verified = TRUE WHERE id = $1`, id)
	return err
}

func (q *Queries) deleteOTPs(ctx context.Context, table, keyCol, key string) error {
	_, err := q.Pool.Exec(ctx, `DELETE FROM `+table+` WHERE `+keyCol+` = $1`, key)
	return err
}

func (q *Queries) deleteExpiredOTPs(ctx context.Context, table, keyCol, key string) (int64, error) {
	tag, err := q.Pool.Exec(ctx,
		`DELETE FROM `+table+` WHERE `+keyCol+` = $1 AND expires_at <= NOW()`, key)
	return tag.RowsAffected(), err
}

// ComplaintOTPs exposes the complaint-keyed OTP table (confirmation and
// tracking access codes).
type ComplaintOTPs struct {
	*Queries
}

func (s ComplaintOTPs) CreateOTP(ctx context.Context, key, code string, expiresAt time.Time) (int64, error) {
	return s.createOTP(ctx, "otp_verifications", "complaint_id", key, code, expiresAt)
}

func (s ComplaintOTPs) FindValidOTP(ctx context.Context, key, code string) (model.OTPRecord, error) {
	return s.findValidOTP(ctx, "otp_verifications", "complaint_id", key, code)
}

func (s ComplaintOTPs) MarkOTPVerified(ctx context.Context, id int64) error {
	return s.markOTPVerified(ctx, "otp_verifications", id)
}

func (s ComplaintOTPs) DeleteOTPs(ctx context.Context, key string) error {
	return s.deleteOTPs(ctx, "otp_verifications", "complaint_id", key)
}

func (s ComplaintOTPs) DeleteExpiredOTPs(ctx context.Context, key string) (int64, error) {
	return s.deleteExpiredOTPs(ctx, "otp_verifications", "complaint_id", key)
}

// RegistrationOTPs exposes the email-keyed OTP table used before a
// complaint exists.
type RegistrationOTPs struct {
	*Queries
}

func (s RegistrationOTPs) CreateOTP(ctx context.Context, key, code string, expiresAt time.Time) (int64, error) {
	return s.createOTP(ctx, "registration_otp_verifications", "email", key, code, expiresAt)
}

func (s RegistrationOTPs) FindValidOTP(ctx context.Context, key, code string) (model.OTPRecord, error) {
	return s.findValidOTP(ctx, "registration_otp_verifications", "email", key, code)
}

func (s RegistrationOTPs) MarkOTPVerified(ctx context.Context, id int64) error {
	return s.markOTPVerified(ctx, "registration_otp_verifications", id)
}

func (s RegistrationOTPs) DeleteOTPs(ctx context.Context, key string) error {
	return s.deleteOTPs(ctx, "registration_otp_verifications", "email", key)
}

func (s RegistrationOTPs) DeleteExpiredOTPs(ctx context.Context, key string) (int64, error) {
	return s.deleteExpiredOTPs(ctx, "registration_otp_verifications", "email", key)
}

// Officer queries

func (q *Queries) GetOfficerByEmail(ctx context.Context, email string) (model.Officer, error) {
	var o model.Officer
	err := q.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at FROM officers WHERE email = $1`,
		email,
	).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.Role, &o.CreatedAt)
	return o, notFound(err)
}

func (q *Queries) CreateOfficer(ctx context.Context, email, passwordHash, role string) (model.Officer, error) {
	var o model.Officer
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO officers (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, role, created_at`,
		email, passwordHash, role,
	).Scan(&o.ID, &o.Email, &o.PasswordHash, &o.Role, &o.CreatedAt)
	return o, err
}

type CreateApprovalParams struct {
	ID            string
	ComplaintID   string
	AIResponse    *string
	FinalResponse string
	ApprovedBy    int64
}

func (q *Queries) CreateApproval(ctx context.Context, p CreateApprovalParams) (model.Approval, error) {
	var a model.Approval
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO responses (id, complaint_id, ai_response, final_response, approved_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, complaint_id, ai_response, final_response, approved_by, approved_at`,
		p.ID, p.ComplaintID, p.AIResponse, p.FinalResponse, p.ApprovedBy,
	).Scan(&a.ID, &a.ComplaintID, &a.AIResponse, &a.FinalResponse, &a.ApprovedBy, &a.ApprovedAt)
	return a, err
}

