package core

import (
	"strconv"
	"strings"
	"time"
)

// CommandKind describes what an inbound chat line resolved to.
type CommandKind int

const (
	// CommandPlain broadcasts the line verbatim.
	CommandPlain CommandKind = iota
	// CommandWhisper sends a private message to a named target.
	CommandWhisper
	// CommandReply whispers whoever whispered the sender last.
	CommandReply
	// CommandKick force-disconnects the target (admin).
	CommandKick
	// CommandBan bans the target and kicks them (admin).
	CommandBan
	// CommandMute silences the target for a duration (admin).
	CommandMute
	// CommandClear wipes every client's displayed transcript (admin).
	CommandClear
	// CommandClose tells the target's client to terminate itself (admin).
	CommandClose
	// CommandMutedReject drops the line because the sender is muted.
	CommandMutedReject
	// CommandNotice delivers a private notice to the sender only
	// (unknown admin sub-command, malformed whisper, and the like).
	CommandNotice
)

// Command is the transient result of classifying one inbound line. It is
// consumed within a single handling step and never stored.
type Command struct {
	Kind     CommandKind
	Target   string
	Body     string
	Duration time.Duration
	Until    time.Time // for CommandMutedReject
}

const (
	whisperPrefix = "/whisper "
	replyPrefix   = "/r "
)

// Router classifies inbound lines. Precedence: mute rejection first (admins
// keep their moderation verbs while muted), then admin commands, then
// whisper, then reply, then plain text. A slash-prefixed line from a
// non-admin that is not a whisper or reply broadcasts verbatim.
type Router struct {
	mutes       *MuteList
	defaultMute time.Duration
}

// NewRouter builds a router over the given mute list. defaultMute applies
// when /mute is issued without a usable duration.
func NewRouter(mutes *MuteList, defaultMute time.Duration) *Router {
	if defaultMute <= 0 {
		defaultMute = 60 * time.Second
	}
	return &Router{mutes: mutes, defaultMute: defaultMute}
}

// Route classifies one line from sender.
func (r *Router) Route(sender string, isAdmin bool, line string) Command {
	if until, muted := r.mutes.MutedUntil(sender); muted {
		if !(isAdmin && isModerationLine(line)) {
			return Command{Kind: CommandMutedReject, Until: until}
		}
	}

	if isAdmin && strings.HasPrefix(line, "/") && !isWhisperLine(line) {
		return r.routeAdmin(line)
	}

	if strings.HasPrefix(line, whisperPrefix) {
		return routeWhisper(line)
	}

	if strings.HasPrefix(line, replyPrefix) {
		body := strings.TrimSpace(line[len(replyPrefix):])
		if body == "" {
			return Command{Kind: CommandNotice, Body: "usage: /r <message>"}
		}
		return Command{Kind: CommandReply, Body: body}
	}

	return Command{Kind: CommandPlain, Body: line}
}

func (r *Router) routeAdmin(line string) Command {
	fields := strings.Fields(line)
	verb := strings.TrimPrefix(fields[0], "/")

	switch verb {
	case "kick", "ban", "close":
		if len(fields) < 2 {
			return Command{Kind: CommandNotice, Body: "usage: /" + verb + " <user>"}
		}
		kind := CommandKick
		switch verb {
		case "ban":
			kind = CommandBan
		case "close":
			kind = CommandClose
		}
		return Command{Kind: kind, Target: fields[1]}
	case "mute":
		if len(fields) < 2 {
			return Command{Kind: CommandNotice, Body: "usage: /mute <user> [seconds]"}
		}
		duration := r.defaultMute
		if len(fields) >= 3 {
			if secs, err := strconv.Atoi(fields[2]); err == nil && secs > 0 {
				duration = time.Duration(secs) * time.Second
			}
		}
		return Command{Kind: CommandMute, Target: fields[1], Duration: duration}
	case "clear":
		return Command{Kind: CommandClear}
	default:
		return Command{Kind: CommandNotice, Body: "unknown command: /" + verb}
	}
}

func routeWhisper(line string) Command {
	rest := line[len(whisperPrefix):]
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return Command{Kind: CommandNotice, Body: "usage: /whisper <user> <message>"}
	}
	return Command{
		Kind:   CommandWhisper,
		Target: fields[0],
		Body:   strings.Join(fields[1:], " "),
	}
}

// isModerationLine reports whether the line is one of the admin verbs a
// muted admin may still issue.
func isModerationLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch strings.TrimPrefix(fields[0], "/") {
	case "kick", "ban", "mute", "clear", "close":
		return strings.HasPrefix(line, "/")
	}
	return false
}

// isWhisperLine lets admin whisper and reply lines fall through to the
// shared whisper handling instead of classifying as unknown commands.
func isWhisperLine(line string) bool {
	return strings.HasPrefix(line, whisperPrefix) || strings.HasPrefix(line, replyPrefix)
}
