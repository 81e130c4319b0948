package roster

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	classes  map[string]*Class
	students map[string]*Student
}

func newFakeStore() *fakeStore {
	return &fakeStore{classes: map[string]*Class{}, students: map[string]*Student{}}
}

func (f *fakeStore) CreateClass(_ context.Context, c Class) error {
	cp := c
	f.classes[c.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateClass(_ context.Context, c Class) error {
	if _, ok := f.classes[c.ID]; !ok {
		return ErrNotFound
	}
	cp := c
	f.classes[c.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteClass(_ context.Context, id string) error {
	if _, ok := f.classes[id]; !ok {
		return ErrNotFound
	}
	delete(f.classes, id)
	return nil
}

func (f *fakeStore) ClassByID(_ context.Context, id string) (*Class, error) {
	if c, ok := f.classes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) ClassByName(_ context.Context, teacherID, name string) (*Class, error) {
	for _, c := range f.classes {
		if c.TeacherID == teacherID && c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListClasses(_ context.Context, teacherID string) ([]Class, error) {
	var out []Class
	for _, c := range f.classes {
		if c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateStudent(_ context.Context, s Student) error {
	cp := s
	f.students[s.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateStudent(_ context.Context, s Student) error {
	if _, ok := f.students[s.ID]; !ok {
		return ErrNotFound
	}
	cp := s
	f.students[s.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteStudent(_ context.Context, id string) error {
	if _, ok := f.students[id]; !ok {
		return ErrNotFound
	}
	delete(f.students, id)
	return nil
}

func (f *fakeStore) StudentByID(_ context.Context, id string) (*Student, error) {
	if s, ok := f.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) StudentByNumber(_ context.Context, number string) (*Student, error) {
	for _, s := range f.students {
		if s.StudentNumber == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListStudents(_ context.Context, classID string) ([]Student, error) {
	var out []Student
	for _, s := range f.students {
		if classID == "" || (s.ClassID != nil && *s.ClassID == classID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewService(store, t.TempDir()), store
}

func tod(h, m int) time.Time {
	return time.Date(0, 1, 1, h, m, 0, 0, time.UTC)
}

func TestCreateClassValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateClass(ctx, "t1", "", tod(8, 0), tod(9, 0)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := svc.CreateClass(ctx, "t1", "Math", tod(9, 0), tod(8, 0)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("start after end: %v", err)
	}
	if _, err := svc.CreateClass(ctx, "t1", "Math", tod(8, 0), tod(8, 0)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero-length class: %v", err)
	}

	c, err := svc.CreateClass(ctx, "t1", "Math", tod(8, 0), tod(9, 0))
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == "" || c.TeacherID != "t1" {
		t.Fatalf("got %+v", c)
	}

	if _, err := svc.CreateClass(ctx, "t1", "Math", tod(10, 0), tod(11, 0)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate name: %v", err)
	}
}

func TestClassOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateClass(ctx, "t1", "Math", tod(8, 0), tod(9, 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateClass(ctx, "t2", c.ID, "Algebra", tod(8, 0), tod(9, 0)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("update by other teacher: %v", err)
	}
	if err := svc.DeleteClass(ctx, "t2", c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by other teacher: %v", err)
	}
}

func TestCreateStudent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.CreateStudent(ctx, "Ada Lovelace", "12345", nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.QRCodePath == "" {
		t.Fatal("qr code not generated")
	}

	if _, err := svc.CreateStudent(ctx, "", "67890", nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := svc.CreateStudent(ctx, "Grace Hopper", "12a45", nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("non-digit number: %v", err)
	}
	if _, err := svc.CreateStudent(ctx, "Grace Hopper", "12345", nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate number: %v", err)
	}
}

func TestUpdateStudentNumberRegeneratesQR(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.CreateStudent(ctx, "Ada Lovelace", "12345", nil)
	if err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UpdateStudent(ctx, st.ID, "Ada Lovelace", "54321", nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.QRCodePath == st.QRCodePath {
		t.Fatal("qr path should change with the number")
	}
}
