package verify

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/XLZRBotGo/internal/bot"
	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/pkg/discord"
)

// createSetKeywordCommand creates /verify setkeyword
func createSetKeywordCommand(svc *bot.Services) *discord.Command {
	return discord.NewCommand(
		"setkeyword",
		"Set the display name keyword and the role it grants",
		"verify",
		func(ctx *discord.CommandContext) error {
			keyword := ctx.GetStringOption("keyword")
			role := ctx.GetRoleOption("role")
			if keyword == "" || role == nil {
				return ctx.ReplyEphemeral("❌ You must specify a keyword and a role.")
			}

			kc, err := svc.Settings.SetKeyword(ctx.GuildID(), keyword, engine.Role{ID: role.ID, Name: role.Name})
			if err != nil {
				if errors.Is(err, engine.ErrInvalidSetting) {
					return ctx.ReplyEphemeral("❌ " + err.Error())
				}
				return err
			}
			svc.Store.FlushAsync()

			return ctx.ReplyEphemeral(fmt.Sprintf("✅ Members whose Roblox display name contains **%s** will receive <@&%s>.", kc.Keyword, kc.RoleID))
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "keyword",
			Description: "Text to look for in the display name",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "Role granted to matching members",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionManageRoles)
}
