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

// PrincipalRepository stores one principal kind in its own collection.
type PrincipalRepository struct {
	col  *mongo.Collection
	ids  *sequence
	role domain.Role
}

var _ ports.PrincipalRepository = (*PrincipalRepository)(nil)

// NewAdminRepository stores admins in the "admins" collection.
func NewAdminRepository(db *mongo.Database) *PrincipalRepository {
	return newPrincipalRepository(db, collectionAdmins, domain.RoleAdmin)
}

// NewDoctorRepository stores doctors in the "doctors" collection.
func NewDoctorRepository(db *mongo.Database) *PrincipalRepository {
	return newPrincipalRepository(db, collectionDoctors, domain.RoleDoctor)
}

func newPrincipalRepository(db *mongo.Database, collection string, role domain.Role) *PrincipalRepository {
	return &PrincipalRepository{
		col:  db.Collection(collection),
		ids:  newSequence(db, collection),
		role: role,
	}
}

type mongoSession struct {
	Token            string    `bson:"token"`
	ExpiresAt        time.Time `bson:"expires_at"`
	RefreshHash      string    `bson:"refresh_hash"`
	RefreshExpiresAt time.Time `bson:"refresh_expires_at"`
}

type mongoProfile struct {
	Phone             string    `bson:"phone"`
	DateOfBirth       time.Time `bson:"date_of_birth"`
	Specialty         string    `bson:"specialty"`
	Department        string    `bson:"department"`
	Email             string    `bson:"email"`
	Address           string    `bson:"address"`
	Gender            string    `bson:"gender"`
	Qualifications    string    `bson:"qualifications"`
	YearsOfExperience int       `bson:"years_of_experience"`
}

type mongoPrincipal struct {
	ID           int64         `bson:"_id"`
	Identity     string        `bson:"identity"`
	Role         string        `bson:"role"`
	PasswordHash string        `bson:"password_hash"`
	Salt         string        `bson:"salt"`
	Session      *mongoSession `bson:"session,omitempty"`
	Profile      *mongoProfile `bson:"profile,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func principalIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "identity", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "session.token", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "session.refresh_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "profile.specialty", Value: 1}, {Key: "profile.department", Value: 1}}},
	}
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := toMongoPrincipal(p)
	doc.ID = id
	doc.Role = string(r.role)

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert %s: %w", r.role, err)
	}
	return doc.toDomain(), nil
}

func (r *PrincipalRepository) FindByIdentity(ctx context.Context, identity string) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"identity": identity})
}

func (r *PrincipalRepository) FindByID(ctx context.Context, id int64) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PrincipalRepository) FindBySessionToken(ctx context.Context, token string) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"session.token": token})
}

func (r *PrincipalRepository) FindByRefreshHash(ctx context.Context, hash string) (*domain.Principal, error) {
	return r.findOne(ctx, bson.M{"session.refresh_hash": hash})
}

func (r *PrincipalRepository) List(ctx context.Context, filter ports.PrincipalFilter) ([]*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, principalFilter(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.role, err)
	}
	defer cur.Close(ctx)

	var docs []mongoPrincipal
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", r.role, err)
	}
	out := make([]*domain.Principal, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// SaveSession overwrites the embedded session sub-document in a single
// update, so readers never see a token from one login and an expiry from
// another.
func (r *PrincipalRepository) SaveSession(ctx context.Context, id int64, s *domain.Session, modifiedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"session":    toMongoSession(s),
			"updated_at": modifiedAt.UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("save %s session: %w", r.role, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearSession unsets the session only while it still carries token.
func (r *PrincipalRepository) ClearSession(ctx context.Context, id int64, token string, modifiedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "session.token": token},
		bson.M{
			"$unset": bson.M{"session": ""},
			"$set":   bson.M{"updated_at": modifiedAt.UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("clear %s session: %w", r.role, err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *PrincipalRepository) UpdateProfile(ctx context.Context, id int64, profile *domain.DoctorProfile, modifiedAt time.Time) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoPrincipal
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"profile":    toMongoProfile(profile),
			"updated_at": modifiedAt.UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update %s profile: %w", r.role, err)
	}
	return doc.toDomain(), nil
}

func (r *PrincipalRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", r.role, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *PrincipalRepository) findOne(ctx context.Context, filter bson.M) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoPrincipal
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.role, err)
	}
	return doc.toDomain(), nil
}

func principalFilter(f ports.PrincipalFilter) bson.M {
	filter := bson.M{}
	if f.Specialty != "" {
		filter["profile.specialty"] = f.Specialty
	}
	if f.Department != "" {
		filter["profile.department"] = f.Department
	}
	return filter
}

func toMongoPrincipal(p *domain.Principal) mongoPrincipal {
	return mongoPrincipal{
		ID:           p.ID,
		Identity:     p.Identity,
		Role:         string(p.Role),
		PasswordHash: p.PasswordHash,
		Salt:         p.Salt,
		Session:      toMongoSession(p.Session),
		Profile:      toMongoProfile(p.Profile),
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

// toMongoSession never carries the plaintext refresh token.
func toMongoSession(s *domain.Session) *mongoSession {
	if s == nil {
		return nil
	}
	return &mongoSession{
		Token:            s.Token,
		ExpiresAt:        s.ExpiresAt.UTC(),
		RefreshHash:      s.RefreshHash,
		RefreshExpiresAt: s.RefreshExpiresAt.UTC(),
	}
}

func toMongoProfile(p *domain.DoctorProfile) *mongoProfile {
	if p == nil {
		return nil
	}
	m := mongoProfile(*p)
	return &m
}

func (m *mongoPrincipal) toDomain() *domain.Principal {
	p := &domain.Principal{
		ID:           m.ID,
		Identity:     m.Identity,
		Role:         domain.Role(m.Role),
		PasswordHash: m.PasswordHash,
		Salt:         m.Salt,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Session != nil {
		p.Session = &domain.Session{
			Token:            m.Session.Token,
			ExpiresAt:        m.Session.ExpiresAt.UTC(),
			RefreshHash:      m.Session.RefreshHash,
			RefreshExpiresAt: m.Session.RefreshExpiresAt.UTC(),
		}
	}
	if m.Profile != nil {
		pr := domain.DoctorProfile(*m.Profile)
		p.Profile = &pr
	}
	return p
}
