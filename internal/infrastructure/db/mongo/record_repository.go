package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mediciel/clinic-records/internal/core/domain"
	"github.com/mediciel/clinic-records/internal/core/ports"
)

// RecordRepository implements ports.RecordRepository. The sensitive_*
// fields hold ciphertext; this layer never sees plaintext identifiers.
type RecordRepository struct {
	col *mongo.Collection
	ids *sequence
}

var _ ports.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(db *mongo.Database) *RecordRepository {
	return &RecordRepository{
		col: db.Collection(collectionRecords),
		ids: newSequence(db, collectionRecords),
	}
}

type mongoSensitive struct {
	PatientPhone          string `bson:"patient_phone"`
	PatientAddress        string `bson:"patient_address"`
	EmergencyContactPhone string `bson:"emergency_contact_phone"`
	InsuranceProvider     string `bson:"insurance_provider"`
	PolicyNumber          string `bson:"policy_number"`
}

type mongoRecord struct {
	ID                   int64          `bson:"_id"`
	DoctorID             int64          `bson:"doctor_id"`
	PatientName          string         `bson:"patient_name"`
	Date                 time.Time      `bson:"date"`
	Diagnosis            string         `bson:"diagnosis"`
	Treatment            string         `bson:"treatment"`
	PatientDateOfBirth   time.Time      `bson:"patient_date_of_birth"`
	EmergencyContactName string         `bson:"emergency_contact_name"`
	Allergies            string         `bson:"allergies"`
	Medications          string         `bson:"medications"`
	PreviousConditions   string         `bson:"previous_conditions"`
	Notes                string         `bson:"notes"`
	Sensitive            mongoSensitive `bson:"sensitive"`
	CreatedAt            time.Time      `bson:"created_at"`
	UpdatedAt            time.Time      `bson:"updated_at"`
}

func recordIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "_id", Value: 1}}},
	}
}

func (r *RecordRepository) Create(ctx context.Context, rec *domain.MedicalRecord) (*domain.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := toMongoRecord(rec)
	doc.ID = id

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert medical record: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RecordRepository) FindByID(ctx context.Context, id, doctorID int64) (*domain.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoRecord
	if err := r.col.FindOne(ctx, ownedBy(id, doctorID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find medical record: %w", err)
	}
	return doc.toDomain(), nil
}

// Update rewrites the mutable fields of a record matched by id and owner.
// patient_name, doctor_id and created_at are left untouched.
func (r *RecordRepository) Update(ctx context.Context, rec *domain.MedicalRecord) (*domain.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoRecord(rec)
	set := bson.M{
		"diagnosis":              doc.Diagnosis,
		"treatment":              doc.Treatment,
		"patient_date_of_birth":  doc.PatientDateOfBirth,
		"emergency_contact_name": doc.EmergencyContactName,
		"allergies":              doc.Allergies,
		"medications":            doc.Medications,
		"previous_conditions":    doc.PreviousConditions,
		"notes":                  doc.Notes,
		"sensitive":              doc.Sensitive,
		"updated_at":             doc.UpdatedAt,
	}
	if !rec.Date.IsZero() {
		set["date"] = doc.Date
	}

	var updated mongoRecord
	err := r.col.FindOneAndUpdate(ctx,
		ownedBy(rec.ID, rec.DoctorID),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update medical record: %w", err)
	}
	return updated.toDomain(), nil
}

func (r *RecordRepository) Delete(ctx context.Context, id, doctorID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, ownedBy(id, doctorID))
	if err != nil {
		return false, fmt.Errorf("delete medical record: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *RecordRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*domain.MedicalRecord, error) {
	return r.list(ctx, bson.M{"doctor_id": doctorID})
}

func (r *RecordRepository) ListAll(ctx context.Context) ([]*domain.MedicalRecord, error) {
	return r.list(ctx, bson.M{})
}

func (r *RecordRepository) list(ctx context.Context, filter bson.M) ([]*domain.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode medical records: %w", err)
	}
	out := make([]*domain.MedicalRecord, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// ownedBy scopes a lookup to one record of one doctor.
func ownedBy(id, doctorID int64) bson.M {
	return bson.M{"_id": id, "doctor_id": doctorID}
}

func toMongoRecord(r *domain.MedicalRecord) mongoRecord {
	return mongoRecord{
		ID:                   r.ID,
		DoctorID:             r.DoctorID,
		PatientName:          r.PatientName,
		Date:                 r.Date.UTC(),
		Diagnosis:            r.Diagnosis,
		Treatment:            r.Treatment,
		PatientDateOfBirth:   r.PatientDateOfBirth.UTC(),
		EmergencyContactName: r.EmergencyContactName,
		Allergies:            r.Allergies,
		Medications:          r.Medications,
		PreviousConditions:   r.PreviousConditions,
		Notes:                r.Notes,
		Sensitive:            mongoSensitive(r.SensitiveFields),
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}

func (m *mongoRecord) toDomain() *domain.MedicalRecord {
	return &domain.MedicalRecord{
		ID:          m.ID,
		DoctorID:    m.DoctorID,
		PatientName: m.PatientName,
		Date:        m.Date.UTC(),
		ClinicalFields: domain.ClinicalFields{
			Diagnosis:            m.Diagnosis,
			Treatment:            m.Treatment,
			PatientDateOfBirth:   m.PatientDateOfBirth.UTC(),
			EmergencyContactName: m.EmergencyContactName,
			Allergies:            m.Allergies,
			Medications:          m.Medications,
			PreviousConditions:   m.PreviousConditions,
			Notes:                m.Notes,
		},
		SensitiveFields: domain.SensitiveFields(m.Sensitive),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}
