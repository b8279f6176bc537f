package tests

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		username := fmt.Sprintf("student%d", i)

		client := env.newClient()
		login, err := client.signup(username, uni.universityId)
		if err != nil {
			t.Fatal(err)
		}

		_, err = client.signup(username, uni.universityId)
		if err == nil {
			t.Fatal("duplicate signup should fail")
		}

		err = client.login(loginInfo{Email: "wrong@mail.com", Password: login.Password})
		if err == nil {
			t.Fatal("login should fail with wrong email")
		}

		err = client.login(loginInfo{Email: login.Email, Password: "wrong_password"})
		if err == nil {
			t.Fatal("login should fail with wrong password")
		}

		err = client.login(login)
		if err != nil {
			t.Fatal(err)
		}

		info, err := client.userInfo()
		if err != nil {
			t.Fatal(err)
		}
		if info.Username != username || info.Id.String() != client.userId || info.Role != "student" {
			t.Fatalf("invalid info %v", info)
		}
		if info.UniversityId == nil || info.UniversityId.String() != uni.universityId {
			t.Fatalf("student should belong to university, got %v", info.UniversityId)
		}
	}
}

func TestSignupRequiresActiveUniversity(t *testing.T) {
	env := setupTestEnv(t)

	platform, err := env.platformAdmin()
	if err != nil {
		t.Fatal(err)
	}

	client := env.newClient()
	_, err = client.signup("nobody", "e1b4a3ee-0000-0000-0000-000000000000")
	if responseStatus(err) != http.StatusNotFound {
		t.Fatalf("signup under unknown university should 404, got %v", err)
	}

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}

	err = platform.Post(fmt.Sprintf("/university/%v/deactivate", uni.universityId)).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.signup("latecomer", uni.universityId)
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("signup under deactivated university should fail, got %v", err)
	}

	err = platform.Post(fmt.Sprintf("/university/%v/activate", uni.universityId)).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.signup("latecomer", uni.universityId)
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}

	student, err := uni.newStudent("student1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = student.createUser("sup2", "supervisor")
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("students cannot create users, got %v", err)
	}

	_, err = uni.admin.createUser("sup2", "supervisor")
	if err != nil {
		t.Fatal(err)
	}

	_, err = uni.admin.createUser("bad_role", "dean")
	if responseStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("invalid role should be rejected, got %v", err)
	}
}

func TestUserDeactivation(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}

	student, err := uni.newStudent("student1")
	if err != nil {
		t.Fatal(err)
	}

	err = uni.admin.Post(fmt.Sprintf("/user/%v/deactivate", student.userId)).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	err = student.login(loginInfo{Email: "student1@mail.com", Password: "student1_password"})
	if err == nil || !strings.Contains(err.Error(), "deactivated") {
		t.Fatalf("deactivated user should not login, got %v", err)
	}

	_, err = student.userInfo()
	if !errors.Is(err, ErrUnauthorized) && responseStatus(err) != http.StatusForbidden {
		t.Fatalf("deactivated user should be rejected, got %v", err)
	}

	err = uni.admin.Post(fmt.Sprintf("/user/%v/activate", student.userId)).Do(nil)
	if err != nil {
		t.Fatal(err)
	}

	err = student.login(loginInfo{Email: "student1@mail.com", Password: "student1_password"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUniversityManagementRequiresPlatformAdmin(t *testing.T) {
	env := setupTestEnv(t)

	uni, err := env.newUniversity("uni1")
	if err != nil {
		t.Fatal(err)
	}

	// a tenant admin is not the platform admin
	_, err = uni.admin.createUniversity("other", "other.edu")
	if responseStatus(err) != http.StatusForbidden {
		t.Fatalf("tenant admin cannot create universities, got %v", err)
	}

	platform, err := env.platformAdmin()
	if err != nil {
		t.Fatal(err)
	}

	_, err = platform.createUniversity("uni1_dup", "uni1.edu")
	if responseStatus(err) != http.StatusConflict {
		t.Fatalf("duplicate domain should conflict, got %v", err)
	}

	universities, err := platform.listUniversities()
	if err != nil {
		t.Fatal(err)
	}
	if len(universities) != 1 || universities[0].Name != "uni1" {
		t.Fatalf("unexpected university list %v", universities)
	}
}
