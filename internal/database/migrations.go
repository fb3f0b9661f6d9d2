package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		global_role VARCHAR(50) NOT NULL DEFAULT 'user',
		hourly_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens(expires_at)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		leader_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		member_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		hourly_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		is_approver BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(leader_id, member_id),
		CHECK (leader_id <> member_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_member_id ON team_members(member_id)`,

	`CREATE TABLE IF NOT EXISTS team_invites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		leader_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL,
		hourly_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		is_approver BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(leader_id, email)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_invites_email ON team_invites(LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		contact_person VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		notes TEXT,
		hourly_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_user_id ON clients(user_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		source VARCHAR(20),
		source_id VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, source, source_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id)`,

	`CREATE TABLE IF NOT EXISTS project_members (
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_approver BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_project_members_user_id ON project_members(user_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title VARCHAR(500) NOT NULL,
		description TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		priority VARCHAR(20) NOT NULL DEFAULT 'medium',
		due_date DATE,
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`,

	`CREATE TABLE IF NOT EXISTS task_assignees (
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		color VARCHAR(20) NOT NULL DEFAULT '#6b7280',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS task_tags (
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	)`,

	`CREATE TABLE IF NOT EXISTS task_comments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_comments_task_id ON task_comments(task_id)`,

	`CREATE TABLE IF NOT EXISTS task_meta (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		task_id UUID NOT NULL UNIQUE REFERENCES tasks(id) ON DELETE CASCADE,
		source VARCHAR(20) NOT NULL,
		source_id VARCHAR(255) NOT NULL,
		source_number VARCHAR(100),
		source_url VARCHAR(1000),
		source_state VARCHAR(50),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(source, source_id, task_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_meta_source ON task_meta(source, source_id)`,

	`CREATE TABLE IF NOT EXISTS time_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		task_id UUID REFERENCES tasks(id) ON DELETE SET NULL,
		start_timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		end_timestamp TIMESTAMP WITH TIME ZONE,
		duration NUMERIC(10,2),
		note TEXT,
		hourly_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		approved_by UUID REFERENCES users(id) ON DELETE SET NULL,
		approved_at TIMESTAMP WITH TIME ZONE,
		review_comment TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (end_timestamp IS NULL OR end_timestamp > start_timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_user_id ON time_logs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_project_id ON time_logs(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_logs_status ON time_logs(status)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id UUID NOT NULL REFERENCES clients(id) ON DELETE RESTRICT,
		invoice_number VARCHAR(100) NOT NULL,
		issue_date DATE NOT NULL,
		due_date DATE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		discount_type VARCHAR(20),
		discount_value NUMERIC(12,2) NOT NULL DEFAULT 0,
		tax_type VARCHAR(20),
		tax_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		paid_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		notes TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, invoice_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_client_id ON invoices(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices(status, due_date)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		time_log_id UUID REFERENCES time_logs(id) ON DELETE SET NULL,
		description TEXT NOT NULL,
		quantity NUMERIC(12,2) NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		amount NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice_id ON invoice_items(invoice_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_time_log_id ON invoice_items(time_log_id)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		direct_key VARCHAR(80) NOT NULL UNIQUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (conversation_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_participants_user_id ON conversation_participants(user_id)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		read_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages(conversation_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type VARCHAR(100) NOT NULL,
		subject_type VARCHAR(50) NOT NULL,
		subject_id UUID NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		read_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS user_integrations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider VARCHAR(20) NOT NULL,
		base_url VARCHAR(500),
		username VARCHAR(255),
		secret BYTEA NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, provider)
	)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
