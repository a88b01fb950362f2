// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package patterns

import "github.com/modsentry/modsentry/internal/profile"

// defaultVersion is bumped whenever the built-in rule sets change.
const defaultVersion = "2026.08.1"

// familySpec is the uncompiled form of a toxicity family.
type familySpec struct {
	name     string
	vtype    profile.ViolationType
	severity profile.Severity
	keywords []string
	regexes  []string
}

// toxicityLadder is ordered least to most severe. MatchToxicity scans it
// in reverse so the most severe matching family wins.
var toxicityLadder = []familySpec{
	{
		name:     "insult",
		vtype:    profile.ViolationToxicity,
		severity: profile.SeverityModerate,
		keywords: []string{
			"you idiot",
			"you moron",
			"shut up loser",
			"you are pathetic",
			"you're pathetic",
			"braindead take",
			"absolute clown",
			"worthless garbage",
		},
	},
	{
		name:     "harassment",
		vtype:    profile.ViolationHarassment,
		severity: profile.SeveritySerious,
		keywords: []string{
			"nobody wants you here",
			"everyone hates you",
			"leave and never come back",
			"go cry somewhere else",
			"we will make your life hell",
			"you should be ashamed to exist",
		},
		regexes: []string{
			`(?i)\bstop\s+posting\s+or\s+else\b`,
		},
	},
	{
		name:     "threat",
		vtype:    profile.ViolationThreat,
		severity: profile.SeveritySevere,
		keywords: []string{
			"i will find you",
			"i know where you live",
			"watch your back",
			"you will regret this",
			"i will hurt you",
			"i'm coming for you",
		},
		regexes: []string{
			`(?i)\bi\s+will\s+(beat|destroy|end)\s+you\b`,
		},
	},
	{
		name:     "hate",
		vtype:    profile.ViolationHateSpeech,
		severity: profile.SeverityCritical,
		keywords: []string{
			"your kind doesn't belong here",
			"your kind does not belong here",
			"go back to your country",
			"people like you should be exterminated",
			"subhuman filth",
		},
		regexes: []string{
			`(?i)\ball\s+\w+\s+people\s+(are|should)\s+(vermin|banned|eliminated)\b`,
		},
	},
}

// phishingKeywords map bait phrases to score weights. A message crosses the
// phishing threshold through one strong lure or several weak ones plus
// urgency framing.
var phishingKeywords = map[string]int{
	"free nitro":            3,
	"free robux":            3,
	"free gift card":        3,
	"claim your prize":      3,
	"you have been selected": 2,
	"verify your account":   2,
	"confirm your identity": 2,
	"account suspended":     2,
	"unusual login":         2,
	"steam giveaway":        2,
	"airdrop":               1,
	"double your crypto":    3,
	"send me your password": 4,
	"login here":            1,
}

// urgencyKeywords each add one point on top of the lure score.
var urgencyKeywords = []string{
	"act now",
	"expires today",
	"last chance",
	"limited time",
	"immediately",
	"within 24 hours",
	"before it's too late",
	"urgent",
}

// distressKeywords trigger the supportive path. False positives here are
// cheap; false negatives are not, so the list stays broad.
var distressKeywords = []string{
	"kill myself",
	"killing myself",
	"want to die",
	"i want to end it all",
	"end my life",
	"no reason to live",
	"better off without me",
	"self harm",
	"self-harm",
	"hurting myself",
	"suicidal",
	"can't go on anymore",
}

// shortenerDomains hide the destination and force threat-intel lookup.
var shortenerDomains = []string{
	"bit.ly",
	"tinyurl.com",
	"goo.gl",
	"t.co",
	"is.gd",
	"cutt.ly",
	"rb.gy",
	"shorturl.at",
	"rebrand.ly",
	"ow.ly",
}

// impersonationDomains are lookalikes of platforms whose credentials the
// scams harvest.
var impersonationDomains = []string{
	"dlscord.com",
	"dlscord.gg",
	"discord-nitro.com",
	"discordgift.ru",
	"steamcommunlty.com",
	"steamcomrnunity.com",
	"twltch.tv",
	"roblox-free.com",
}

// blacklistedDomains are known grabbers and loggers; extended per
// deployment through threat_intel.extra_blocklist.
var blacklistedDomains = []string{
	"grabify.link",
	"iplogger.org",
	"iplogger.com",
	"2no.co",
	"yip.su",
	"blasze.tk",
}
