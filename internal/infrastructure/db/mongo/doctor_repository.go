package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

const doctorsCollection = "doctors"

// DoctorRepository persists doctor directory records.
type DoctorRepository struct {
	coll *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) *DoctorRepository {
	return &DoctorRepository{coll: db.Collection(doctorsCollection)}
}

type mongoDoctor struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	LicenseNumber string             `bson:"license_number"`
	Specialty     string             `bson:"specialty"`
	Email         string             `bson:"email"`
	HospitalID    string             `bson:"hospital_id,omitempty"`
	CreatedAt     int64              `bson:"created_at"`
	UpdatedAt     int64              `bson:"updated_at"`
}

func (md *mongoDoctor) toDomain() *domain.Doctor {
	return &domain.Doctor{
		ID:            md.ID.Hex(),
		Name:          md.Name,
		LicenseNumber: md.LicenseNumber,
		Specialty:     md.Specialty,
		Email:         md.Email,
		HospitalID:    md.HospitalID,
		CreatedAt:     unixToTime(md.CreatedAt),
		UpdatedAt:     unixToTime(md.UpdatedAt),
	}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoDoctor{
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		Specialty:     d.Specialty,
		Email:         d.Email,
		HospitalID:    d.HospitalID,
		CreatedAt:     d.CreatedAt.Unix(),
		UpdatedAt:     d.UpdatedAt.Unix(),
	}

	result, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, dupKeyError(err)
		}
		return nil, fmt.Errorf("insert doctor: %w", err)
	}

	created := *d
	created.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*domain.Doctor, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDoctorNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var md mongoDoctor
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&md); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("find doctor by id: %w", err)
	}
	return md.toDomain(), nil
}

func (r *DoctorRepository) FindByLicense(ctx context.Context, license string) (*domain.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var md mongoDoctor
	if err := r.coll.FindOne(ctx, bson.M{"license_number": license}).Decode(&md); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("find doctor by license: %w", err)
	}
	return md.toDomain(), nil
}

func (r *DoctorRepository) FindByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var md mongoDoctor
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&md); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("find doctor by email: %w", err)
	}
	return md.toDomain(), nil
}

func (r *DoctorRepository) List(ctx context.Context, filter ports.ListDoctorsFilter) ([]*domain.Doctor, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Specialty != "" {
		query["specialty"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(filter.Specialty) + "$",
			Options: "i",
		}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer cursor.Close(ctx)

	var doctors []*domain.Doctor
	for cursor.Next(ctx) {
		var md mongoDoctor
		if err := cursor.Decode(&md); err != nil {
			return nil, 0, fmt.Errorf("decode doctor: %w", err)
		}
		doctors = append(doctors, md.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors: %w", err)
	}
	return doctors, total, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *domain.Doctor) error {
	oid, err := primitive.ObjectIDFromHex(d.ID)
	if err != nil {
		return domain.ErrDoctorNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":           d.Name,
		"license_number": d.LicenseNumber,
		"specialty":      d.Specialty,
		"email":          d.Email,
		"hospital_id":    d.HospitalID,
		"updated_at":     d.UpdatedAt.Unix(),
	}}

	result, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dupKeyError(err)
		}
		return fmt.Errorf("update doctor: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrDoctorNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return total, nil
}

func (r *DoctorRepository) CountBySpecialty(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$specialty"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by specialty: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			Specialty string `bson:"_id"`
			Count     int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode specialty count: %w", err)
		}
		counts[row.Specialty] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialty counts: %w", err)
	}
	return counts, nil
}

// EnsureIndexes creates necessary indexes on the doctors collection.
func (r *DoctorRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "license_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialty", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// dupKeyError maps a duplicate-key violation to the sentinel matching the
// index that fired.
func dupKeyError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return domain.ErrDoctorEmailTaken
	}
	return domain.ErrLicenseTaken
}
