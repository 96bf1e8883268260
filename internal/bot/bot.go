package bot

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
)

// Gateway intents for guild, member, voice state and message events.
const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMessages

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config            *Config
	session           *discordgo.Session
	modules           []Module
	handlers          map[string]InteractionHandler
	componentHandlers map[string]InteractionHandler
	modalHandlers     map[string]InteractionHandler
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:            cfg,
		modules:           make([]Module, 0),
		handlers:          make(map[string]InteractionHandler),
		componentHandlers: make(map[string]InteractionHandler),
		modalHandlers:     make(map[string]InteractionHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start initializes the bot, connects to Discord, and registers commands.
func (b *Bot) Start() error {
	// Load module configuration before touching the network
	if err := b.loadModuleConfigs(); err != nil {
		return fmt.Errorf("failed to load module config: %w", err)
	}

	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = intents
	b.session = session

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler maps
	b.buildHandlerMap()

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Register module event handlers
	b.registerEventHandlers()

	// Open connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Close the gateway before modules shut down
	var closeErr error
	if b.session != nil {
		closeErr = b.session.Close()
	}

	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	return closeErr
}

// loadModuleConfigs calls LoadConfig on every ConfigurableModule.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("%s: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
		Config:  b.config,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name and custom ID to handler mappings.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())

		if interactive, ok := mod.(InteractiveModule); ok {
			maps.Copy(b.componentHandlers, interactive.ComponentHandlers())
			maps.Copy(b.modalHandlers, interactive.ModalHandlers())
		}
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands registers all module commands with Discord.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string registers commands globally
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		slog.Debug("registered command", "command", cmd.Name)
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handlerFor resolves the handler for an interaction. The key is the command
// name for slash commands and the custom ID for components and modals.
func (b *Bot) handlerFor(i *discordgo.InteractionCreate) (string, InteractionHandler, bool) {
	var (
		key   string
		table map[string]InteractionHandler
	)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		key, table = i.ApplicationCommandData().Name, b.handlers
	case discordgo.InteractionMessageComponent:
		key, table = i.MessageComponentData().CustomID, b.componentHandlers
	case discordgo.InteractionModalSubmit:
		key, table = i.ModalSubmitData().CustomID, b.modalHandlers
	default:
		return "", nil, false
	}

	handler, ok := table[key]
	return key, handler, ok
}

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	key, handler, ok := b.handlerFor(i)
	if !ok {
		if key == "" {
			return
		}
		slog.Warn("found no handler for interaction", "type", i.Type.String(), "key", key)
		b.respondWithEmbed(s, i, "Unknown Interaction", "This interaction is not recognized.", colorYellow)
		return
	}

	responder := NewDiscordResponder(s, i.Interaction)
	if err := handler(s, i, responder); err != nil {
		slog.Error("failed to handle interaction", "type", i.Type.String(), "key", key, "error", err)
		switch {
		case !responder.Responded():
			b.respondWithEmbed(s, i, "Error", "An error occurred while processing your request.",
				colorRed)
		case responder.Pending():
			b.editWithEmbed(responder, "Error", "An error occurred while processing your request.",
				colorRed)
		}
	}
}

// respondWithEmbed sends an ephemeral embed response to an interaction.
func (b *Bot) respondWithEmbed(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	title, description string,
	color int,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}

// editWithEmbed replaces a deferred response with an embed.
func (b *Bot) editWithEmbed(r Responder, title, description string, color int) {
	embeds := []*discordgo.MessageEmbed{
		{
			Title:       title,
			Description: description,
			Color:       color,
		},
	}
	if err := r.Edit(&discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		slog.Error("failed to edit deferred response", "error", err)
	}
}
