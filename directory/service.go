package directory

import (
	"context"
	"errors"
	"fmt"

	"doctorsportal/apperr"
	"doctorsportal/db"
	"doctorsportal/models"
	"doctorsportal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service manages registered users, admin roles, specialties and doctors.
type Service struct {
	store db.Store
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// RegisterResult is either {isAlreadyRegistered:true} or an insert result.
type RegisterResult struct {
	IsAlreadyRegistered bool                `json:"isAlreadyRegistered,omitempty"`
	Acknowledged        bool                `json:"acknowledged,omitempty"`
	InsertedID          *primitive.ObjectID `json:"insertedId,omitempty"`
}

var alreadyRegistered = RegisterResult{IsAlreadyRegistered: true}

// Register stores u unless a user with the same email exists. Roles can only
// be granted through PromoteToAdmin.
func (s *Service) Register(ctx context.Context, u models.User) (RegisterResult, error) {
	if err := utils.Validate(u); err != nil {
		return RegisterResult{}, err
	}

	var existing models.User
	err := s.store.FindOne(ctx, db.Users, bson.M{"email": u.Email}, &existing)
	if err == nil {
		return alreadyRegistered, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("find user: %w", err)
	}

	u.ID = primitive.NilObjectID
	u.Role = ""
	res, err := s.store.InsertOne(ctx, db.Users, u)
	if errors.Is(err, db.ErrDuplicateKey) {
		return alreadyRegistered, nil
	}
	if err != nil {
		return RegisterResult{}, fmt.Errorf("insert user: %w", err)
	}

	id := res.InsertedID
	return RegisterResult{Acknowledged: res.Acknowledged, InsertedID: &id}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.store.Find(ctx, db.Users, bson.M{}, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *Service) DeleteUser(ctx context.Context, id primitive.ObjectID) (db.DeleteResult, error) {
	res, err := s.store.DeleteOne(ctx, db.Users, bson.M{"_id": id})
	if err != nil {
		return db.DeleteResult{}, fmt.Errorf("delete user %s: %w", id.Hex(), err)
	}
	return res, nil
}

// PromoteToAdmin sets the admin role on id, creating a bare record when none
// exists.
func (s *Service) PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (db.UpdateResult, error) {
	res, err := s.store.UpdateOne(ctx, db.Users, bson.M{"_id": id}, bson.M{"role": models.RoleAdmin}, true)
	if errors.Is(err, db.ErrDuplicateKey) {
		return db.UpdateResult{}, apperr.Conflict("user conflicts with an existing record")
	}
	if err != nil {
		return db.UpdateResult{}, fmt.Errorf("promote user %s: %w", id.Hex(), err)
	}
	return res, nil
}

// IsAdmin is false for unknown emails.
func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	var u models.User
	err := s.store.FindOne(ctx, db.Users, bson.M{"email": email}, &u)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find user: %w", err)
	}
	return u.IsAdmin(), nil
}

// Specialties lists the names of all appointment options.
func (s *Service) Specialties(ctx context.Context) ([]models.Specialty, error) {
	specialties := []models.Specialty{}
	if err := s.store.Find(ctx, db.AppointmentOptions, bson.M{}, &specialties, db.Project("name")); err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	if specialties == nil {
		specialties = []models.Specialty{}
	}
	return specialties, nil
}

func (s *Service) CreateDoctor(ctx context.Context, d models.Doctor) (db.InsertResult, error) {
	if err := utils.Validate(d); err != nil {
		return db.InsertResult{}, err
	}
	d.ID = primitive.NilObjectID
	res, err := s.store.InsertOne(ctx, db.Doctors, d)
	if err != nil {
		return db.InsertResult{}, fmt.Errorf("insert doctor: %w", err)
	}
	return res, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	doctors := []models.Doctor{}
	if err := s.store.Find(ctx, db.Doctors, bson.M{}, &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	return doctors, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id primitive.ObjectID) (db.DeleteResult, error) {
	res, err := s.store.DeleteOne(ctx, db.Doctors, bson.M{"_id": id})
	if err != nil {
		return db.DeleteResult{}, fmt.Errorf("delete doctor %s: %w", id.Hex(), err)
	}
	return res, nil
}
