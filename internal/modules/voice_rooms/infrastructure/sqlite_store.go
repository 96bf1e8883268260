package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"

	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteStore implements ports.Store.
var _ ports.Store = (*SQLiteStore)(nil)

var errStoreNotInitialized = errors.New("store not initialized")

const schema = `
CREATE TABLE IF NOT EXISTS guild (
	id          INTEGER PRIMARY KEY,
	permanence  INTEGER NOT NULL DEFAULT 0,
	privacy     TEXT    NOT NULL DEFAULT 'unlocked'
);

CREATE TABLE IF NOT EXISTS category_channel (
	id              INTEGER PRIMARY KEY,
	guild_id        INTEGER NOT NULL REFERENCES guild(id) ON DELETE CASCADE,
	join_channel_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_category_channel_guild ON category_channel(guild_id);

CREATE TABLE IF NOT EXISTS voice_channel (
	id               INTEGER PRIMARY KEY,
	guild_id         INTEGER NOT NULL REFERENCES guild(id) ON DELETE CASCADE,
	parent_id        INTEGER NOT NULL REFERENCES category_channel(id) ON DELETE CASCADE,
	owner_id         INTEGER,
	panel_message_id INTEGER
);
CREATE INDEX IF NOT EXISTS idx_voice_channel_guild ON voice_channel(guild_id);
CREATE INDEX IF NOT EXISTS idx_voice_channel_owner ON voice_channel(guild_id, owner_id);
`

// SQLiteStore persists guild settings, categories and rooms in an embedded
// SQLite database. It uses modernc.org/sqlite so builds stay CGO-free.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
}

// NewSQLiteStore creates a store backed by the file at dbPath. Call Init before using it.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Init opens the database, configures pragmas and ensures the schema exists.
func (s *SQLiteStore) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; a single connection keeps PRAGMA state consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	if s.db == nil {
		return errStoreNotInitialized
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// EnsureGuild inserts the guild with default settings if it is missing.
func (s *SQLiteStore) EnsureGuild(ctx context.Context, guildID snowflake.ID) (ports.GuildSettings, error) {
	if err := s.exec(ctx,
		`INSERT INTO guild (id) VALUES (?) ON CONFLICT(id) DO NOTHING`,
		int64(guildID),
	); err != nil {
		return ports.GuildSettings{}, err
	}

	var permanence bool
	var privacy string
	if err := s.db.QueryRowContext(ctx,
		`SELECT permanence, privacy FROM guild WHERE id = ?`,
		int64(guildID),
	).Scan(&permanence, &privacy); err != nil {
		return ports.GuildSettings{}, err
	}

	parsed, err := domain.ParsePrivacy(privacy)
	if err != nil {
		return ports.GuildSettings{}, err
	}

	return ports.GuildSettings{Permanence: permanence, Privacy: parsed}, nil
}

func (s *SQLiteStore) SetGuildPermanence(ctx context.Context, guildID snowflake.ID, permanence bool) error {
	return s.exec(ctx,
		`INSERT INTO guild (id, permanence) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET permanence = excluded.permanence`,
		int64(guildID), permanence,
	)
}

func (s *SQLiteStore) SetGuildPrivacy(ctx context.Context, guildID snowflake.ID, privacy domain.Privacy) error {
	return s.exec(ctx,
		`INSERT INTO guild (id, privacy) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET privacy = excluded.privacy`,
		int64(guildID), privacy.String(),
	)
}

func (s *SQLiteStore) DeleteGuild(ctx context.Context, guildID snowflake.ID) error {
	return s.exec(ctx, `DELETE FROM guild WHERE id = ?`, int64(guildID))
}

func (s *SQLiteStore) Categories(ctx context.Context, guildID snowflake.ID) ([]ports.CategoryRecord, error) {
	if s.db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, join_channel_id FROM category_channel WHERE guild_id = ? ORDER BY id`,
		int64(guildID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.CategoryRecord
	for rows.Next() {
		var id int64
		var joinChannelID sql.NullInt64
		if err := rows.Scan(&id, &joinChannelID); err != nil {
			return nil, err
		}
		records = append(records, ports.CategoryRecord{
			ID:            snowflake.ID(id),
			GuildID:       guildID,
			JoinChannelID: nullID(joinChannelID),
		})
	}
	return records, rows.Err()
}

func (s *SQLiteStore) InsertCategory(ctx context.Context, record ports.CategoryRecord) error {
	return s.exec(ctx,
		`INSERT INTO category_channel (id, guild_id, join_channel_id) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET join_channel_id = excluded.join_channel_id`,
		int64(record.ID), int64(record.GuildID), idOrNull(record.JoinChannelID),
	)
}

func (s *SQLiteStore) SetCategoryJoinChannel(ctx context.Context, categoryID, joinChannelID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE category_channel SET join_channel_id = ? WHERE id = ?`,
		idOrNull(joinChannelID), int64(categoryID),
	)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, categoryID snowflake.ID) error {
	return s.exec(ctx, `DELETE FROM category_channel WHERE id = ?`, int64(categoryID))
}

func (s *SQLiteStore) VoiceChannels(ctx context.Context, guildID snowflake.ID) ([]ports.VoiceChannelRecord, error) {
	if s.db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, owner_id, panel_message_id FROM voice_channel WHERE guild_id = ? ORDER BY id`,
		int64(guildID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ports.VoiceChannelRecord
	for rows.Next() {
		var id, parentID int64
		var ownerID, panelMessageID sql.NullInt64
		if err := rows.Scan(&id, &parentID, &ownerID, &panelMessageID); err != nil {
			return nil, err
		}
		records = append(records, ports.VoiceChannelRecord{
			ID:             snowflake.ID(id),
			GuildID:        guildID,
			ParentID:       snowflake.ID(parentID),
			OwnerID:        nullID(ownerID),
			PanelMessageID: nullID(panelMessageID),
		})
	}
	return records, rows.Err()
}

func (s *SQLiteStore) InsertVoiceChannel(ctx context.Context, record ports.VoiceChannelRecord) error {
	return s.exec(ctx,
		`INSERT INTO voice_channel (id, guild_id, parent_id, owner_id, panel_message_id) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   parent_id = excluded.parent_id,
		   owner_id = excluded.owner_id,
		   panel_message_id = excluded.panel_message_id`,
		int64(record.ID),
		int64(record.GuildID),
		int64(record.ParentID),
		idOrNull(record.OwnerID),
		idOrNull(record.PanelMessageID),
	)
}

func (s *SQLiteStore) SetVoiceChannelOwner(ctx context.Context, channelID, ownerID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE voice_channel SET owner_id = ? WHERE id = ?`,
		idOrNull(ownerID), int64(channelID),
	)
}

func (s *SQLiteStore) SetVoiceChannelParent(ctx context.Context, channelID, parentID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE voice_channel SET parent_id = ? WHERE id = ?`,
		int64(parentID), int64(channelID),
	)
}

func (s *SQLiteStore) ClearOwner(ctx context.Context, guildID, userID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE voice_channel SET owner_id = NULL WHERE guild_id = ? AND owner_id = ?`,
		int64(guildID), int64(userID),
	)
}

func (s *SQLiteStore) SetPanelMessage(ctx context.Context, channelID, messageID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE voice_channel SET panel_message_id = ? WHERE id = ?`,
		idOrNull(messageID), int64(channelID),
	)
}

func (s *SQLiteStore) ClearPanelMessage(ctx context.Context, messageID snowflake.ID) error {
	return s.exec(ctx,
		`UPDATE voice_channel SET panel_message_id = NULL WHERE panel_message_id = ?`,
		int64(messageID),
	)
}

func (s *SQLiteStore) DeleteVoiceChannel(ctx context.Context, channelID snowflake.ID) error {
	return s.exec(ctx, `DELETE FROM voice_channel WHERE id = ?`, int64(channelID))
}

// RetainChannels deletes the guild's category and room rows whose IDs are not in keep.
func (s *SQLiteStore) RetainChannels(ctx context.Context, guildID snowflake.ID, keep []snowflake.ID) error {
	if s.db == nil {
		return errStoreNotInitialized
	}

	live := make(map[snowflake.ID]struct{}, len(keep))
	for _, id := range keep {
		live[id] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"voice_channel", "category_channel"} {
		stale, err := staleIDs(ctx, tx, table, guildID, live)
		if err != nil {
			return err
		}
		for _, id := range stale {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete %s %d: %w", table, id, err)
			}
		}
	}

	return tx.Commit()
}

func staleIDs(
	ctx context.Context,
	tx *sql.Tx,
	table string,
	guildID snowflake.ID,
	live map[snowflake.ID]struct{},
) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM `+table+` WHERE guild_id = ?`, int64(guildID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := live[snowflake.ID(id)]; !ok {
			stale = append(stale, id)
		}
	}
	return stale, rows.Err()
}

func idOrNull(id snowflake.ID) any {
	if id == 0 {
		return nil
	}
	return int64(id)
}

func nullID(v sql.NullInt64) snowflake.ID {
	if !v.Valid {
		return 0
	}
	return snowflake.ID(v.Int64)
}
