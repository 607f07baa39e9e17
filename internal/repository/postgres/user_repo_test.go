package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"teamtasks/internal/domain"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success assigns the generated id",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users \(email, password_hash, salt, name, created_at, updated_at\)`).
					WithArgs("ada@example.com", "hash", "salt", "Ada", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-1"))
			},
		},
		{
			name: "unique violation maps to ErrDuplicateEmail",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users \(email, password_hash, salt, name, created_at, updated_at\)`).
					WithArgs("ada@example.com", "hash", "salt", "Ada", now, now).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicateEmail,
		},
		{
			name: "other driver errors pass through",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users \(email, password_hash, salt, name, created_at, updated_at\)`).
					WithArgs("ada@example.com", "hash", "salt", "Ada", now, now).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			u := &domain.User{
				Email:        "ada@example.com",
				PasswordHash: "hash",
				Salt:         "salt",
				Name:         "Ada",
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			err = repo.Create(ctx, u)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.Equal(t, tt.wantErr.Error(), err.Error())
			} else {
				require.NoError(t, err)
				require.Equal(t, "user-1", u.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "password_hash", "salt", "name", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, password_hash, salt, name, created_at, updated_at`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("user-1", "ada@example.com", "hash", "salt", "Ada", now, now))

		repo := NewUserRepository(db)
		u, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, "user-1", u.ID)
		require.Equal(t, "ada@example.com", u.Email)
		require.Equal(t, "hash", u.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrUserNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, password_hash, salt, name, created_at, updated_at`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(cols))

		repo := NewUserRepository(db)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "password_hash", "salt", "name", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, password_hash, salt, name, created_at, updated_at`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("user-1", "ada@example.com", "hash", "salt", "Ada", now, now))

		repo := NewUserRepository(db)
		u, err := repo.GetByID(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, "Ada", u.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrUserNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, password_hash, salt, name, created_at, updated_at`).
			WithArgs("user-missing").
			WillReturnRows(sqlmock.NewRows(cols))

		repo := NewUserRepository(db)
		_, err = repo.GetByID(ctx, "user-missing")
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
