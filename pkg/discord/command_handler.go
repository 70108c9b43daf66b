package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/pkg/config"
	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// CommandHandler manages command registration
type CommandHandler struct {
	client           *ExtendedClient
	slashCommands    []*discordgo.ApplicationCommand
	slashCommandsDev []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:           client,
		slashCommands:    make([]*discordgo.ApplicationCommand, 0),
		slashCommandsDev: make([]*discordgo.ApplicationCommand, 0),
	}
}

// BuildCommandGroup creates a command group with subcommands. Each
// subcommand is routed as "<name>.<sub>". The group is visible to members
// holding the union of the subcommand permissions.
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))

	var perms int64
	restricted := true
	for _, cmd := range subcommands {
		ch.client.Commands.Set(name+"."+cmd.Name, cmd)

		if cmd.UserPermissions == 0 {
			restricted = false
		}
		perms |= cmd.UserPermissions

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}

	group := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
	if restricted && perms != 0 {
		group.DefaultMemberPermissions = &perms
	}
	return group
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// AddDevCommand adds a command to the dev command list
func (ch *CommandHandler) AddDevCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommandsDev = append(ch.slashCommandsDev, cmd)
}

// Definitions returns the global and dev command definitions
func (ch *CommandHandler) Definitions() (global, dev []*discordgo.ApplicationCommand) {
	return ch.slashCommands, ch.slashCommandsDev
}

// RegisterCommands overwrites the slash commands known to Discord with the
// registered ones
func (ch *CommandHandler) RegisterCommands() {
	cfg := config.Get()
	appID := ch.client.Session.State.User.ID

	logger.Info("🔄 Registering global commands...", "CommandHandler")
	if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, "", ch.slashCommands); err != nil {
		logger.Error("Error registering global commands: "+err.Error(), "CommandHandler")
	} else {
		logger.Success(fmt.Sprintf("✅ %d global commands registered.", len(ch.slashCommands)), "CommandHandler")
	}

	if cfg.DevGuildID == "" || len(ch.slashCommandsDev) == 0 {
		return
	}

	logger.Info("🔄 Registering dev commands in guild "+cfg.DevGuildID+"...", "CommandHandler")
	if _, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, cfg.DevGuildID, ch.slashCommandsDev); err != nil {
		logger.Error("Error registering dev commands: "+err.Error(), "CommandHandler")
		return
	}
	logger.Success("✅ Dev commands registered.", "CommandHandler")
}

// UnregisterCommands removes all commands of guildID, or the global ones when
// guildID is empty
func (ch *CommandHandler) UnregisterCommands(appID, guildID string) error {
	commands, err := ch.client.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := ch.client.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error deleting command "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}

	logger.Success(fmt.Sprintf("%d commands removed.", len(commands)), "CommandHandler")
	return nil
}
