package voice_rooms

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/infrastructure"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/presentation/discord"
)

func init() {
	bot.Register(&VoiceRoomsModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*VoiceRoomsModule)(nil)
	_ bot.InteractiveModule  = (*VoiceRoomsModule)(nil)
)

var errNoSession = errors.New("voice_rooms module requires a Discord session")

// VoiceRoomsModule provides join-to-create voice rooms.
type VoiceRoomsModule struct {
	config *Config

	store *infrastructure.SQLiteStore
	tasks *infrastructure.TaskRunner

	commandHandlers *discord.CommandHandlers
	panelHandlers   *discord.PanelHandlers
	eventHandlers   *discord.EventHandlers
}

// Name returns the module name.
func (m *VoiceRoomsModule) Name() string {
	return "voice_rooms"
}

// Commands returns the slash commands for this module.
func (m *VoiceRoomsModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *VoiceRoomsModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"create":          m.commandHandlers.HandleCreate,
		"remove-category": m.commandHandlers.HandleRemoveCategory,
		"settings":        m.commandHandlers.HandleSettings,
	}
}

// ComponentHandlers returns the message component handlers for this module.
func (m *VoiceRoomsModule) ComponentHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.PanelSelectID:        m.panelHandlers.HandlePanelSelect,
		discord.AddMemberSelectID:    m.panelHandlers.HandleAddMember,
		discord.AddRoleSelectID:      m.panelHandlers.HandleAddRole,
		discord.RemoveMemberSelectID: m.panelHandlers.HandleRemoveMember,
		discord.RemoveRoleSelectID:   m.panelHandlers.HandleRemoveRole,
		discord.KickSelectID:         m.panelHandlers.HandleKick,
		discord.TransferSelectID:     m.panelHandlers.HandleTransfer,
		discord.PrivacySelectID:      m.panelHandlers.HandlePrivacy,
		discord.SlowmodeSelectID:     m.panelHandlers.HandleSlowmode,
		discord.VideoQualitySelectID: m.panelHandlers.HandleVideoQuality,
	}
}

// ModalHandlers returns the modal submit handlers for this module.
func (m *VoiceRoomsModule) ModalHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		discord.NameModalID:      m.panelHandlers.HandleNameModal,
		discord.BitrateModalID:   m.panelHandlers.HandleBitrateModal,
		discord.UserLimitModalID: m.panelHandlers.HandleUserLimitModal,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *VoiceRoomsModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		m.eventHandlers.HandleReady,
		m.eventHandlers.HandleGuildCreate,
		m.eventHandlers.HandleGuildDelete,
		m.eventHandlers.HandleChannelDelete,
		m.eventHandlers.HandleChannelUpdate,
		m.eventHandlers.HandleGuildMemberRemove,
		m.eventHandlers.HandleMessageDelete,
		m.eventHandlers.HandleVoiceStateUpdate,
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *VoiceRoomsModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *VoiceRoomsModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errNoSession
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	// Create infrastructure
	m.store = infrastructure.NewSQLiteStore(m.config.DatabasePath)
	if err := m.store.Init(); err != nil {
		return err
	}
	m.tasks = infrastructure.NewTaskRunner(m.config.TaskWorkers, m.config.TaskBuffer)

	cache := infrastructure.NewMemoryCache()
	channels := infrastructure.NewDiscordChannelManager(deps.Session)
	panels := infrastructure.NewDiscordPanelMessenger(deps.Session)
	members := infrastructure.NewDiscordMemberManager(deps.Session)
	identity := infrastructure.NewSessionIdentity(deps.Session)

	// Create services
	lifecycle := usecases.NewLifecycleService(cache, m.store, channels, panels, members, identity, m.tasks)
	ownership := usecases.NewOwnershipService(cache, m.store, channels, identity)
	access := usecases.NewAccessService(cache, channels, members, identity)
	guildSettings := usecases.NewGuildSettingsService(cache, m.store, channels, m.tasks)
	categories := usecases.NewCategoryService(cache, m.store, channels, m.tasks, identity, m.config.MaxCategories)
	channelSettings := usecases.NewChannelSettingsService(cache, channels, identity)
	sync := usecases.NewSyncService(cache, m.store, channels, m.tasks, lifecycle, ownership)

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(categories, guildSettings, lifecycle)
	m.panelHandlers = discord.NewPanelHandlers(lifecycle, ownership, access, channelSettings)
	m.eventHandlers = discord.NewEventHandlers(sync, identity, members)

	slog.Info("voice_rooms module initialized",
		"database_path", m.config.DatabasePath,
		"max_categories", m.config.MaxCategories,
	)

	return nil
}

// Shutdown cleans up module resources.
func (m *VoiceRoomsModule) Shutdown() error {
	// Stop workers before the store closes
	if m.tasks != nil {
		m.tasks.Close()
	}

	if m.store != nil {
		return m.store.Close()
	}

	return nil
}
