package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/smileworks/practice-portal/internal/events"
	"github.com/smileworks/practice-portal/internal/models"
	"github.com/smileworks/practice-portal/internal/validator"
)

func newUserServiceForTest(repo *fakeRepository, publisher events.EventPublisher) UserService {
	return NewUserService(repo, nil, slog.Default(), validator.New(), publisher)
}

func TestInviteAndActivate(t *testing.T) {
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := newUserServiceForTest(repo, publisher)
	ctx := context.Background()

	repo.practices[5] = &models.Practice{ID: 5, Name: "Bright Smiles", CustomRoles: models.RoleSet{}}

	user, err := svc.Invite(ctx, 5, &InviteUserRequest{
		FullName: "Ada Dental",
		Email:    "ada@example.com",
		Roles:    []string{"hygiene"},
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Status != models.UserInvited {
		t.Errorf("expected invited status, got %s", user.Status)
	}
	if user.InviteToken == nil || *user.InviteToken == "" {
		t.Fatal("expected an invite token")
	}
	if !user.Roles.Contains("hygiene") {
		t.Error("expected roles carried onto the user")
	}

	// Second invite for the same email is a conflict.
	_, err = svc.Invite(ctx, 5, &InviteUserRequest{FullName: "Other", Email: "ada@example.com"}, 1)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}

	activated, err := svc.Activate(ctx, *user.InviteToken)
	if err != nil {
		t.Fatalf("unexpected error activating: %v", err)
	}
	if activated.Status != models.UserActive {
		t.Errorf("expected active status, got %s", activated.Status)
	}
	if activated.InviteToken != nil {
		t.Error("invite token should be cleared on activation")
	}
	if activated.ActivatedAt == nil {
		t.Error("expected activation timestamp")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected invite + activate events, got %d", len(published))
	}
	if published[0].Type != events.TypeUserInvited || published[1].Type != events.TypeUserActivated {
		t.Errorf("unexpected event sequence: %s, %s", published[0].Type, published[1].Type)
	}
}

func TestActivate_BadToken(t *testing.T) {
	svc := newUserServiceForTest(newFakeRepository(), nil)

	if _, err := svc.Activate(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found for unknown token, got %v", err)
	}
	if _, err := svc.Activate(context.Background(), "  "); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation error for blank token, got %v", err)
	}
}

func TestAssignCourse_Idempotent(t *testing.T) {
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := newUserServiceForTest(repo, publisher)
	ctx := context.Background()

	repo.users[7] = &models.User{ID: 7, PracticeID: 5}
	repo.courses[1] = &models.Course{ID: 1, PracticeID: 5, Status: models.CoursePublished}

	if err := svc.AssignCourse(ctx, 7, 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AssignCourse(ctx, 7, 1, 2); err != nil {
		t.Fatalf("repeat assignment should be a no-op, got %v", err)
	}
	if len(repo.assignments[7]) != 1 {
		t.Errorf("expected a single assignment edge, got %d", len(repo.assignments[7]))
	}

	if err := svc.AssignCourse(ctx, 7, 404, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not-found for unknown course, got %v", err)
	}

	if err := svc.UnassignCourse(ctx, 7, 1); err != nil {
		t.Fatalf("unexpected error unassigning: %v", err)
	}
	if len(repo.assignments[7]) != 0 {
		t.Errorf("expected assignment removed, got %v", repo.assignments[7])
	}
}

func TestAddPracticeRole(t *testing.T) {
	repo := newFakeRepository()
	svc := newUserServiceForTest(repo, nil)
	ctx := context.Background()

	repo.practices[5] = &models.Practice{ID: 5, CustomRoles: models.NewRoleSet("hygiene")}

	if err := svc.AddPracticeRole(ctx, 5, "front_desk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	roles, err := svc.ListPracticeRoles(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}

	tests := []struct {
		name string
		role string
		want error
	}{
		{"exact duplicate is a conflict", "hygiene", ErrConflict},
		{"different casing is a new role", "Hygiene", nil},
		{"blank tag is rejected", "   ", ErrValidationFailed},
		{"comma in tag is rejected", "a,b", ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddPracticeRole(ctx, 5, tt.role)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListUsers_RoleFilterSpansPages(t *testing.T) {
	repo := newFakeRepository()
	svc := newUserServiceForTest(repo, nil)
	ctx := context.Background()

	// The only hygienist sorts after a page-filling non-match, so filtering
	// a single already paginated page would miss her entirely.
	repo.users[1] = &models.User{ID: 1, PracticeID: 5, FullName: "Front Desk", Roles: models.NewRoleSet("front_desk")}
	repo.users[2] = &models.User{ID: 2, PracticeID: 5, FullName: "Hygienist A", Roles: models.NewRoleSet("hygiene")}
	repo.users[3] = &models.User{ID: 3, PracticeID: 5, FullName: "Hygienist B", Roles: models.NewRoleSet("hygiene")}

	resp, err := svc.List(ctx, 5, &models.ListUsersParams{Page: 0, Size: 1, Role: "hygiene"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2 matches, got %d", resp.Total)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != 2 {
		t.Fatalf("expected user 2 on the first page, got %+v", resp.Users)
	}

	resp, err = svc.List(ctx, 5, &models.ListUsersParams{Page: 1, Size: 1, Role: "hygiene"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != 3 {
		t.Fatalf("expected user 3 on the second page, got %+v", resp.Users)
	}
	if resp.Total != 2 {
		t.Errorf("expected total to stay 2 on later pages, got %d", resp.Total)
	}
}

func TestListUsers_RoleFilterIsExact(t *testing.T) {
	repo := newFakeRepository()
	svc := newUserServiceForTest(repo, nil)

	repo.users[1] = &models.User{ID: 1, PracticeID: 5, Roles: models.NewRoleSet("hygiene")}
	repo.users[2] = &models.User{ID: 2, PracticeID: 5, Roles: models.NewRoleSet("hygiene_lead")}
	repo.users[3] = &models.User{ID: 3, PracticeID: 5, Roles: models.RoleSet{}}

	resp, err := svc.List(context.Background(), 5, &models.ListUsersParams{Size: 20, Role: "hygiene"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 1 || len(resp.Users) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(resp.Users))
	}
	if resp.Users[0].ID != 1 {
		t.Errorf("expected user 1, got %d", resp.Users[0].ID)
	}
}
