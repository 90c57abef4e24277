package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on startup.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) COLLATE utf8mb4_unicode_ci NOT NULL,
		phone VARCHAR(32) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_admins_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL,
		birthdate DATE NOT NULL,
		gender VARCHAR(32) NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_phone (phone)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		admin_id BIGINT UNSIGNED NULL,
		user_id BIGINT UNSIGNED NULL,
		token TEXT NOT NULL,
		token_hash CHAR(64) NOT NULL,
		type VARCHAR(16) NOT NULL DEFAULT 'refresh',
		blacklisted TINYINT(1) NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_tokens_hash (token_hash),
		KEY idx_tokens_admin (admin_id),
		KEY idx_tokens_user (user_id),
		CONSTRAINT fk_tokens_admin FOREIGN KEY (admin_id) REFERENCES admins(id) ON DELETE CASCADE,
		CONSTRAINT fk_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		name_ku VARCHAR(255) NOT NULL,
		name_ar VARCHAR(255) NOT NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS lotteries (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name_en VARCHAR(255) NOT NULL,
		name_ku VARCHAR(255) NOT NULL DEFAULT '',
		name_ar VARCHAR(255) NOT NULL DEFAULT '',
		content_en TEXT NOT NULL,
		content_ku TEXT NOT NULL,
		content_ar TEXT NOT NULL,
		price_per_ticket BIGINT NOT NULL,
		deadline DATETIME NOT NULL,
		category_id BIGINT UNSIGNED NOT NULL,
		image VARCHAR(1024) NOT NULL DEFAULT '',
		author_id BIGINT UNSIGNED NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_lotteries_deadline (deadline),
		CONSTRAINT fk_lotteries_category FOREIGN KEY (category_id) REFERENCES categories(id),
		CONSTRAINT fk_lotteries_author FOREIGN KEY (author_id) REFERENCES admins(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		lottery_id BIGINT UNSIGNED NOT NULL,
		quantity INT UNSIGNED NOT NULL,
		activities JSON NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_purchases_user_lottery (user_id, lottery_id),
		KEY idx_purchases_lottery (lottery_id),
		CONSTRAINT fk_purchases_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_purchases_lottery FOREIGN KEY (lottery_id) REFERENCES lotteries(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables.  It does not migrate existing ones.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
