package services

import (
	"testing"

	"shoply/internal/models"
	"shoply/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("Alice@Example.com", "secret123", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %q", user.Email)
		}
		if user.Password == "secret123" {
			t.Error("expected password to be hashed")
		}
		if !user.IsActive {
			t.Error("expected new user to be active")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("alice@example.com", "secret123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("ALICE@example.com", "other456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("", "secret123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_resets_counter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)
		db.Model(user).Update("failed_login_attempts", 3)

		loggedIn, err := svc.AttemptLogin(user.Email, "password")
		testutil.AssertNoError(t, err)

		var reloaded models.User
		db.First(&reloaded, "id = ?", loggedIn.ID)
		if reloaded.FailedLoginAttempts != 0 {
			t.Errorf("expected counter reset, got %d", reloaded.FailedLoginAttempts)
		}
		if reloaded.LastLoginAt == nil {
			t.Error("expected last login timestamp")
		}
	})

	t.Run("wrong_password_and_wrong_email_look_alike", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		_, badPassword := svc.AttemptLogin(user.Email, "wrong")
		testutil.AssertAppError(t, badPassword, "INVALID_CREDENTIALS")

		_, badEmail := svc.AttemptLogin("nobody@example.com", "password")
		testutil.AssertAppError(t, badEmail, "INVALID_CREDENTIALS")

		if badPassword.Error() != badEmail.Error() {
			t.Error("expected identical errors for bad password and bad email")
		}
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		user := testutil.CreateTestUser(t, db)

		for i := 0; i < maxFailedLogins; i++ {
			_, err := svc.AttemptLogin(user.Email, "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the right password is rejected while locked.
		_, err := svc.AttemptLogin(user.Email, "password")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})
}
