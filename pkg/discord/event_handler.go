package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/pkg/logger"
)

// EventHandler registers gateway event handlers on the session
type EventHandler struct {
	client *ExtendedClient
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// RegisterEvent adds any discordgo handler to the session and returns the
// function that removes it
func (eh *EventHandler) RegisterEvent(handler interface{}) func() {
	return eh.client.Session.AddHandler(handler)
}

func (eh *EventHandler) register(name string, handler interface{}) func() {
	remove := eh.RegisterEvent(handler)
	logger.Debug("Event '"+name+"' registered", "EventHandler")
	return remove
}

// OnReady registers a Ready handler. Ready fires again after every
// reconnect that cannot resume.
func (eh *EventHandler) OnReady(handler func(*discordgo.Session, *discordgo.Ready)) func() {
	return eh.register("Ready", handler)
}

// OnMessageCreate registers a MessageCreate handler
func (eh *EventHandler) OnMessageCreate(handler func(*discordgo.Session, *discordgo.MessageCreate)) func() {
	return eh.register("MessageCreate", handler)
}

// OnGuildMemberAdd registers a GuildMemberAdd handler. Requires the
// GuildMembers intent.
func (eh *EventHandler) OnGuildMemberAdd(handler func(*discordgo.Session, *discordgo.GuildMemberAdd)) func() {
	return eh.register("GuildMemberAdd", handler)
}

// OnGuildMemberRemove registers a GuildMemberRemove handler
func (eh *EventHandler) OnGuildMemberRemove(handler func(*discordgo.Session, *discordgo.GuildMemberRemove)) func() {
	return eh.register("GuildMemberRemove", handler)
}

// OnGuildCreate registers a GuildCreate handler
func (eh *EventHandler) OnGuildCreate(handler func(*discordgo.Session, *discordgo.GuildCreate)) func() {
	return eh.register("GuildCreate", handler)
}

// OnGuildDelete registers a GuildDelete handler
func (eh *EventHandler) OnGuildDelete(handler func(*discordgo.Session, *discordgo.GuildDelete)) func() {
	return eh.register("GuildDelete", handler)
}
