package tests

import (
	"bytes"
	"fmt"
	"testing"

	"capstone_platform/project_hub/auth"
	"capstone_platform/project_hub/notify"
	"capstone_platform/project_hub/schema"
	"capstone_platform/project_hub/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), 10)
}

type testEnv struct {
	projectHub services.ProjectHub
	api        chi.Router
	db         *gorm.DB
}

const (
	adminUsername = "platform_admin"
	adminEmail    = "platform_admin@mail.com"
	adminPassword = "platform_admin_password"
)

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(
		&schema.University{}, &schema.User{}, &schema.Project{},
		&schema.TeamMembership{}, &schema.Task{}, &schema.TaskDependency{},
		&schema.Deliverable{}, &schema.Notification{},
	)
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminUsername: adminUsername,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	projectHub := services.NewProjectHub(db, userAuth, notify.NewDbDispatcher(db))

	return &testEnv{projectHub: projectHub, api: projectHub.Routes(), db: db}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) platformAdmin() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}

// newUniversity creates a tenant plus one admin and one supervisor account,
// replicating the usual provisioning order.
func (t *testEnv) newUniversity(name string) (universityEnv, error) {
	platform, err := t.platformAdmin()
	if err != nil {
		return universityEnv{}, err
	}

	universityId, err := platform.createUniversity(name, name+".edu")
	if err != nil {
		return universityEnv{}, err
	}

	admin := t.newClient()
	adminUser := name + "_admin"

	// a tenant admin cannot self-signup, so it is seeded directly
	adminId, err := seedUser(t.db, adminUser, schema.RoleAdmin, universityId)
	if err != nil {
		return universityEnv{}, err
	}
	if err := admin.login(loginInfo{Email: adminUser + "@mail.com", Password: adminUser + "_password"}); err != nil {
		return universityEnv{}, err
	}

	supervisor := t.newClient()
	supervisorUser := name + "_supervisor"
	supervisorLogin, err := admin.createUser(supervisorUser, schema.RoleSupervisor)
	if err != nil {
		return universityEnv{}, err
	}
	if err := supervisor.login(supervisorLogin); err != nil {
		return universityEnv{}, err
	}

	return universityEnv{
		env:          t,
		universityId: universityId,
		admin:        admin,
		adminId:      adminId,
		supervisor:   supervisor,
	}, nil
}

type universityEnv struct {
	env          *testEnv
	universityId string
	admin        client
	adminId      uuid.UUID
	supervisor   client
}

func (u *universityEnv) newStudent(username string) (client, error) {
	c := u.env.newClient()
	login, err := c.signup(username, u.universityId)
	if err != nil {
		return client{}, err
	}
	if err := c.login(login); err != nil {
		return client{}, err
	}
	return c, nil
}

func (u *universityEnv) newSupervisor(username string) (client, error) {
	c := u.env.newClient()
	login, err := u.admin.createUser(username, schema.RoleSupervisor)
	if err != nil {
		return client{}, err
	}
	if err := c.login(login); err != nil {
		return client{}, err
	}
	return c, nil
}

// seedUser inserts a user row directly, bypassing the signup flow. Needed
// for the first admin of a tenant, which the API cannot create.
func seedUser(db *gorm.DB, username, role, universityId string) (uuid.UUID, error) {
	uniId, err := uuid.Parse(universityId)
	if err != nil {
		return uuid.Nil, err
	}

	hashed, err := hashPassword(username + "_password")
	if err != nil {
		return uuid.Nil, err
	}

	user := schema.User{
		Id:            uuid.New(),
		Username:      username,
		Email:         username + "@mail.com",
		Password:      hashed,
		Role:          role,
		UniversityId:  &uniId,
		IsActive:      true,
		EmailVerified: true,
	}

	if result := db.Create(&user); result.Error != nil {
		return uuid.Nil, fmt.Errorf("error seeding user %v: %w", username, result.Error)
	}

	return user.Id, nil
}
