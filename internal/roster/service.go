package roster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// Store is the persistence surface the service uses.
type Store interface {
	CreateClass(ctx context.Context, c Class) error
	UpdateClass(ctx context.Context, c Class) error
	DeleteClass(ctx context.Context, id string) error
	ClassByID(ctx context.Context, id string) (*Class, error)
	ClassByName(ctx context.Context, teacherID, name string) (*Class, error)
	ListClasses(ctx context.Context, teacherID string) ([]Class, error)

	CreateStudent(ctx context.Context, s Student) error
	UpdateStudent(ctx context.Context, s Student) error
	DeleteStudent(ctx context.Context, id string) error
	StudentByID(ctx context.Context, id string) (*Student, error)
	StudentByNumber(ctx context.Context, number string) (*Student, error)
	ListStudents(ctx context.Context, classID string) ([]Student, error)
}

// Service validates and manages the class and student roster. Each new
// student gets a QR code image encoding their student number, written
// once at creation.
type Service struct {
	store Store
	qrDir string
}

func NewService(store Store, qrDir string) *Service {
	if qrDir == "" {
		qrDir = filepath.Join("static", "qr")
	}
	return &Service{store: store, qrDir: qrDir}
}

func (s *Service) CreateClass(ctx context.Context, teacherID, name string, start, end time.Time) (Class, error) {
	if name == "" {
		return Class{}, fmt.Errorf("%w: class name is required", ErrInvalid)
	}
	if !start.Before(end) {
		return Class{}, fmt.Errorf("%w: class must start before it ends", ErrInvalid)
	}
	if dup, err := s.store.ClassByName(ctx, teacherID, name); err != nil {
		return Class{}, err
	} else if dup != nil {
		return Class{}, fmt.Errorf("%w: a class named %q already exists", ErrInvalid, name)
	}

	c := Class{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		Name:      name,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.store.CreateClass(ctx, c); err != nil {
		return Class{}, err
	}
	return c, nil
}

func (s *Service) UpdateClass(ctx context.Context, teacherID, classID, name string, start, end time.Time) (Class, error) {
	c, err := s.ownedClass(ctx, teacherID, classID)
	if err != nil {
		return Class{}, err
	}
	if name == "" {
		return Class{}, fmt.Errorf("%w: class name is required", ErrInvalid)
	}
	if !start.Before(end) {
		return Class{}, fmt.Errorf("%w: class must start before it ends", ErrInvalid)
	}

	c.Name = name
	c.StartTime = start
	c.EndTime = end
	if err := s.store.UpdateClass(ctx, c); err != nil {
		return Class{}, err
	}
	return c, nil
}

func (s *Service) DeleteClass(ctx context.Context, teacherID, classID string) error {
	if _, err := s.ownedClass(ctx, teacherID, classID); err != nil {
		return err
	}
	return s.store.DeleteClass(ctx, classID)
}

func (s *Service) GetClass(ctx context.Context, teacherID, classID string) (Class, error) {
	return s.ownedClass(ctx, teacherID, classID)
}

func (s *Service) ListClasses(ctx context.Context, teacherID string) ([]Class, error) {
	return s.store.ListClasses(ctx, teacherID)
}

func (s *Service) ownedClass(ctx context.Context, teacherID, classID string) (Class, error) {
	c, err := s.store.ClassByID(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	if c == nil {
		return Class{}, ErrNotFound
	}
	if c.TeacherID != teacherID {
		return Class{}, ErrForbidden
	}
	return *c, nil
}

func (s *Service) CreateStudent(ctx context.Context, name, number string, classID *string) (Student, error) {
	if err := validateStudent(name, number); err != nil {
		return Student{}, err
	}
	if dup, err := s.store.StudentByNumber(ctx, number); err != nil {
		return Student{}, err
	} else if dup != nil {
		return Student{}, fmt.Errorf("%w: student number %s is already taken", ErrInvalid, number)
	}

	st := Student{
		ID:            uuid.NewString(),
		Name:          name,
		StudentNumber: number,
		ClassID:       classID,
	}
	qrPath, err := s.writeQR(number)
	if err != nil {
		return Student{}, fmt.Errorf("generate qr code: %w", err)
	}
	st.QRCodePath = qrPath

	if err := s.store.CreateStudent(ctx, st); err != nil {
		return Student{}, err
	}
	return st, nil
}

func (s *Service) UpdateStudent(ctx context.Context, studentID, name, number string, classID *string) (Student, error) {
	existing, err := s.store.StudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if existing == nil {
		return Student{}, ErrNotFound
	}
	if err := validateStudent(name, number); err != nil {
		return Student{}, err
	}
	if number != existing.StudentNumber {
		if dup, err := s.store.StudentByNumber(ctx, number); err != nil {
			return Student{}, err
		} else if dup != nil {
			return Student{}, fmt.Errorf("%w: student number %s is already taken", ErrInvalid, number)
		}
		// The QR encodes the number, so a changed number needs a new code.
		qrPath, err := s.writeQR(number)
		if err != nil {
			return Student{}, fmt.Errorf("generate qr code: %w", err)
		}
		existing.QRCodePath = qrPath
	}

	existing.Name = name
	existing.StudentNumber = number
	existing.ClassID = classID
	if err := s.store.UpdateStudent(ctx, *existing); err != nil {
		return Student{}, err
	}
	return *existing, nil
}

func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	st, err := s.store.StudentByID(ctx, studentID)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrNotFound
	}
	return s.store.DeleteStudent(ctx, studentID)
}

func (s *Service) GetStudent(ctx context.Context, studentID string) (Student, error) {
	st, err := s.store.StudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if st == nil {
		return Student{}, ErrNotFound
	}
	return *st, nil
}

func (s *Service) StudentByNumber(ctx context.Context, number string) (Student, error) {
	st, err := s.store.StudentByNumber(ctx, number)
	if err != nil {
		return Student{}, err
	}
	if st == nil {
		return Student{}, ErrNotFound
	}
	return *st, nil
}

func (s *Service) ListStudents(ctx context.Context, classID string) ([]Student, error) {
	return s.store.ListStudents(ctx, classID)
}

// SetStudentPhoto stores the uploaded photo location; empty path clears it.
func (s *Service) SetStudentPhoto(ctx context.Context, studentID, photoPath string) (Student, error) {
	st, err := s.store.StudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	if st == nil {
		return Student{}, ErrNotFound
	}
	if photoPath == "" {
		st.PhotoPath = nil
	} else {
		st.PhotoPath = &photoPath
	}
	if err := s.store.UpdateStudent(ctx, *st); err != nil {
		return Student{}, err
	}
	return *st, nil
}

func validateStudent(name, number string) error {
	if name == "" {
		return fmt.Errorf("%w: student name is required", ErrInvalid)
	}
	if number == "" {
		return fmt.Errorf("%w: student number is required", ErrInvalid)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: student number must contain only digits", ErrInvalid)
		}
	}
	return nil
}

func (s *Service) writeQR(number string) (string, error) {
	if err := os.MkdirAll(s.qrDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.qrDir, number+".png")
	if err := qrcode.WriteFile(number, qrcode.Medium, 256, path); err != nil {
		return "", err
	}
	return path, nil
}
