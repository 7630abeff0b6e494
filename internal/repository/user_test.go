package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/emotune/internal/domain"
)

const (
	insertUserQuery = `INSERT INTO users \(username, password_hash\) VALUES \(\$1, \$2\) RETURNING id, created_at`
	selectUserQuery = `SELECT id, username, password_hash, created_at FROM users WHERE username = \$1`
)

func TestUserRepository_Create(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantAny   bool
	}{
		{
			name: "successful creation",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insertUserQuery).
					WithArgs("alice", "$argon2id$hash").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(userID, now))
			},
		},
		{
			name: "duplicate username",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insertUserQuery).
					WithArgs("alice", "$argon2id$hash").
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
			},
			wantErr: domain.ErrUsernameTaken,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(insertUserQuery).
					WithArgs("alice", "$argon2id$hash").
					WillReturnError(errors.New("connection refused"))
			},
			wantAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewUserRepository(mock)
			user := &domain.User{Username: "alice", PasswordHash: "$argon2id$hash"}
			err = repo.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrUsernameTaken)
			default:
				require.NoError(t, err)
				assert.Equal(t, userID, user.ID)
				assert.Equal(t, now, user.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		username  string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.User
		wantErr   error
	}{
		{
			name:     "successful retrieval",
			username: "alice",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
					AddRow(userID, "alice", "$argon2id$hash", now)
				mock.ExpectQuery(selectUserQuery).WithArgs("alice").WillReturnRows(rows)
			},
			want: &domain.User{ID: userID, Username: "alice", PasswordHash: "$argon2id$hash", CreatedAt: now},
		},
		{
			name:     "user not found",
			username: "bob",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectUserQuery).WithArgs("bob").WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewUserRepository(mock)
			got, err := repo.GetByUsername(context.Background(), tt.username)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key")))
	assert.False(t, isUniqueViolation(nil))
}
