package schema

// Helper constructors used by the default registry and by tests

// NewColumn creates a column definition
func NewColumn(name, dataType string, nullable bool) Column {
	return Column{Name: name, DataType: dataType, Nullable: nullable}
}

// NewColumnDefault creates a column definition with a default value
func NewColumnDefault(name, dataType string, nullable bool, defaultValue string) Column {
	return Column{Name: name, DataType: dataType, Nullable: nullable, Default: &defaultValue}
}

func fk(column, referencedTable string) ForeignKey {
	return ForeignKey{
		Name:             "fk_" + referencedTable + "_" + column,
		Column:           column,
		ReferencedTable:  referencedTable,
		ReferencedColumn: "id",
		OnDelete:         "CASCADE",
	}
}

var idColumn = Column{Name: "id", DataType: "VARCHAR(36)", Nullable: false}

func timestamps() []Column {
	return []Column{
		NewColumnDefault("created_at", "DATETIME", false, "CURRENT_TIMESTAMP"),
		NewColumnDefault("updated_at", "DATETIME", false, "CURRENT_TIMESTAMP"),
	}
}

func withTimestamps(columns ...Column) []Column {
	return append(columns, timestamps()...)
}

// Default returns the registry for the Cardbase application schema. Tables
// are listed in dependency order; changing the order here changes collection
// order, SQL emission order, and delete order everywhere.
func Default() *Registry {
	registry, err := NewRegistry(defaultTables())
	if err != nil {
		// The default registry is static; an ordering error here is a
		// programming mistake, not a runtime condition.
		panic(err)
	}
	return registry
}

func defaultTables() []*Table {
	return []*Table{
		{
			Name: "users",
			Columns: withTimestamps(
				idColumn,
				NewColumn("email", "VARCHAR(255)", false),
				NewColumn("display_name", "VARCHAR(100)", false),
				NewColumn("password_hash", "VARCHAR(255)", true),
				NewColumn("reset_token", "VARCHAR(255)", true),
				NewColumnDefault("email_verified", "TINYINT(1)", false, "0"),
				NewColumn("avatar_url", "VARCHAR(512)", true),
				NewColumn("last_login_at", "DATETIME", true),
			),
			PrimaryKey: []string{"id"},
			Indexes: []Index{
				{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
			},
		},
		{
			Name: "plans",
			Columns: withTimestamps(
				idColumn,
				NewColumn("name", "VARCHAR(100)", false),
				NewColumn("price_cents", "INT", false),
				NewColumn("max_decks", "INT", false),
				NewColumn("max_cards_per_deck", "INT", false),
			),
			PrimaryKey: []string{"id"},
		},
		{
			Name: "achievements",
			Columns: withTimestamps(
				idColumn,
				NewColumn("code", "VARCHAR(64)", false),
				NewColumn("title", "VARCHAR(150)", false),
				NewColumn("description", "TEXT", true),
				NewColumn("points", "INT", false),
			),
			PrimaryKey: []string{"id"},
			Indexes: []Index{
				{Name: "idx_achievements_code", Columns: []string{"code"}, Unique: true},
			},
		},
		{
			Name: "accounts",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("provider", "VARCHAR(50)", false),
				NewColumn("provider_account_id", "VARCHAR(255)", false),
				NewColumn("access_token", "TEXT", true),
				NewColumn("refresh_token", "TEXT", true),
				NewColumn("id_token", "TEXT", true),
				NewColumn("expires_at", "DATETIME", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
			Indexes: []Index{
				{Name: "idx_accounts_provider", Columns: []string{"provider", "provider_account_id"}, Unique: true},
			},
		},
		{
			Name: "sessions",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("session_token", "VARCHAR(255)", false),
				NewColumn("expires_at", "DATETIME", false),
				NewColumn("ip_address", "VARCHAR(45)", true),
				NewColumn("user_agent", "VARCHAR(512)", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
			Indexes: []Index{
				{Name: "idx_sessions_token", Columns: []string{"session_token"}, Unique: true},
			},
		},
		{
			Name: "verification_tokens",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("token", "VARCHAR(255)", false),
				NewColumn("purpose", "VARCHAR(50)", false),
				NewColumn("expires_at", "DATETIME", false),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
		},
		{
			Name: "api_keys",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("label", "VARCHAR(100)", false),
				NewColumn("secret_hash", "VARCHAR(255)", false),
				NewColumn("last_used_at", "DATETIME", true),
				NewColumnDefault("revoked", "TINYINT(1)", false, "0"),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
		},
		{
			Name: "user_settings",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumnDefault("locale", "VARCHAR(10)", false, "en"),
				NewColumnDefault("timezone", "VARCHAR(64)", false, "UTC"),
				NewColumnDefault("daily_goal", "INT", false, "20"),
				NewColumnDefault("notifications_enabled", "TINYINT(1)", false, "1"),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
			Indexes: []Index{
				{Name: "idx_user_settings_user", Columns: []string{"user_id"}, Unique: true},
			},
		},
		{
			Name: "subscriptions",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("plan_id", "VARCHAR(36)", false),
				NewColumn("status", "VARCHAR(20)", false),
				NewColumn("current_period_end", "DATETIME", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users"), fk("plan_id", "plans")},
		},
		{
			Name: "categories",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("parent_id", "VARCHAR(36)", true),
				NewColumn("name", "VARCHAR(100)", false),
				NewColumn("color", "VARCHAR(7)", true),
				NewColumnDefault("position", "INT", false, "0"),
			),
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				fk("user_id", "users"),
				{Name: "fk_categories_parent", Column: "parent_id", ReferencedTable: "categories", ReferencedColumn: "id", OnDelete: "SET NULL"},
			},
		},
		{
			Name: "tags",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("name", "VARCHAR(60)", false),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
			Indexes: []Index{
				{Name: "idx_tags_user_name", Columns: []string{"user_id", "name"}, Unique: true},
			},
		},
		{
			Name: "decks",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("category_id", "VARCHAR(36)", true),
				NewColumn("title", "VARCHAR(150)", false),
				NewColumn("description", "TEXT", true),
				NewColumnDefault("is_public", "TINYINT(1)", false, "0"),
				NewColumnDefault("card_count", "INT", false, "0"),
			),
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				fk("user_id", "users"),
				{Name: "fk_decks_category", Column: "category_id", ReferencedTable: "categories", ReferencedColumn: "id", OnDelete: "SET NULL"},
			},
		},
		{
			Name: "cards",
			Columns: withTimestamps(
				idColumn,
				NewColumn("deck_id", "VARCHAR(36)", false),
				NewColumn("front", "TEXT", false),
				NewColumn("back", "TEXT", false),
				NewColumn("hint", "TEXT", true),
				NewColumnDefault("position", "INT", false, "0"),
				NewColumnDefault("ease_factor", "DOUBLE", false, "2.5"),
				NewColumnDefault("interval_days", "INT", false, "0"),
				NewColumn("due_at", "DATETIME", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("deck_id", "decks")},
			Indexes: []Index{
				{Name: "idx_cards_deck", Columns: []string{"deck_id"}},
				{Name: "idx_cards_due", Columns: []string{"due_at"}},
			},
		},
		{
			Name: "card_media",
			Columns: withTimestamps(
				idColumn,
				NewColumn("card_id", "VARCHAR(36)", false),
				NewColumn("kind", "VARCHAR(20)", false),
				NewColumn("url", "VARCHAR(512)", false),
				NewColumn("size_bytes", "BIGINT", false),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("card_id", "cards")},
		},
		{
			Name: "card_tags",
			Columns: []Column{
				NewColumn("card_id", "VARCHAR(36)", false),
				NewColumn("tag_id", "VARCHAR(36)", false),
				NewColumnDefault("created_at", "DATETIME", false, "CURRENT_TIMESTAMP"),
			},
			PrimaryKey:  []string{"card_id", "tag_id"},
			ForeignKeys: []ForeignKey{fk("card_id", "cards"), fk("tag_id", "tags")},
		},
		{
			Name: "reviews",
			Columns: []Column{
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("card_id", "VARCHAR(36)", false),
				NewColumn("rating", "TINYINT", false),
				NewColumn("elapsed_ms", "INT", false),
				NewColumn("reviewed_at", "DATETIME", false),
			},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users"), fk("card_id", "cards")},
			Indexes: []Index{
				{Name: "idx_reviews_card", Columns: []string{"card_id", "reviewed_at"}},
			},
		},
		{
			Name: "study_sessions",
			Columns: []Column{
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("deck_id", "VARCHAR(36)", false),
				NewColumn("started_at", "DATETIME", false),
				NewColumn("ended_at", "DATETIME", true),
				NewColumnDefault("cards_reviewed", "INT", false, "0"),
				NewColumnDefault("cards_correct", "INT", false, "0"),
			},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users"), fk("deck_id", "decks")},
		},
		{
			Name: "study_progress",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("deck_id", "VARCHAR(36)", false),
				NewColumnDefault("cards_mastered", "INT", false, "0"),
				NewColumnDefault("streak_days", "INT", false, "0"),
				NewColumn("last_studied_at", "DATETIME", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users"), fk("deck_id", "decks")},
			Indexes: []Index{
				{Name: "idx_progress_user_deck", Columns: []string{"user_id", "deck_id"}, Unique: true},
			},
		},
		{
			Name: "user_achievements",
			Columns: []Column{
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("achievement_id", "VARCHAR(36)", false),
				NewColumn("earned_at", "DATETIME", false),
			},
			PrimaryKey:  []string{"user_id", "achievement_id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users"), fk("achievement_id", "achievements")},
		},
		{
			Name: "notifications",
			Columns: []Column{
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("kind", "VARCHAR(50)", false),
				NewColumn("payload", "TEXT", true),
				NewColumnDefault("read", "TINYINT(1)", false, "0"),
				NewColumnDefault("created_at", "DATETIME", false, "CURRENT_TIMESTAMP"),
			},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
		},
		{
			Name: "audit_log",
			Columns: []Column{
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", true),
				NewColumn("action", "VARCHAR(100)", false),
				NewColumn("entity", "VARCHAR(100)", true),
				NewColumn("entity_id", "VARCHAR(36)", true),
				NewColumn("detail", "TEXT", true),
				NewColumnDefault("created_at", "DATETIME", false, "CURRENT_TIMESTAMP"),
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_audit_log_user", Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id", OnDelete: "SET NULL"},
			},
		},
		{
			Name: "import_jobs",
			Columns: withTimestamps(
				idColumn,
				NewColumn("user_id", "VARCHAR(36)", false),
				NewColumn("source", "VARCHAR(50)", false),
				NewColumn("status", "VARCHAR(20)", false),
				NewColumnDefault("rows_imported", "INT", false, "0"),
				NewColumn("error", "TEXT", true),
			),
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{fk("user_id", "users")},
		},
	}
}
