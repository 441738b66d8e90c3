package composer

import "strings"

// messageTone is the template pair for one rung of the outreach ladder.
// Templates use {invoice}, {remain}, and {appear} tokens that are expanded
// with the correct number agreement at compose time.
type messageTone struct {
	subject string
	opening string
	closing string
}

// standardTones escalate from friendly to final notice by escalation level.
// Levels above the last entry reuse it.
var standardTones = []messageTone{
	{
		subject: "Friendly reminder: outstanding {invoice}",
		opening: "I hope this note finds you well. This is a friendly reminder that the following {invoice} {appear} to be outstanding:",
		closing: "If payment has already been sent, please disregard this message. Otherwise, we would appreciate payment at your earliest convenience.",
	},
	{
		subject: "Follow-up: outstanding {invoice}",
		opening: "I wanted to follow up on my earlier note regarding the following outstanding {invoice}:",
		closing: "Please let me know if there is anything holding up payment, or if you need a copy of the original {invoice}.",
	},
	{
		subject: "Payment required: overdue {invoice}",
		opening: "Despite previous reminders, the following {invoice} {remain} unpaid:",
		closing: "Please arrange payment within the next five business days, or contact me to discuss a payment plan.",
	},
	{
		subject: "Urgent: overdue {invoice} - service at risk",
		opening: "This is an urgent notice. The following {invoice} {remain} significantly overdue despite repeated reminders:",
		closing: "If payment is not received within five business days, we may be forced to suspend service to your account. Please treat this as a priority.",
	},
	{
		subject: "Final notice: overdue {invoice}",
		opening: "This is a final notice regarding the following seriously overdue {invoice}:",
		closing: "If we do not receive payment or hear from you within three business days, this account will be referred for further collections action. We would much prefer to resolve this directly with you.",
	},
}

// vipTones are used for VIP accounts. Three bands, all courteous, never
// threatening regardless of how overdue the account is.
var vipTones = []messageTone{
	{
		subject: "A gentle note about your account",
		opening: "I hope all is well. While reviewing accounts I noticed the following {invoice} still showing as open:",
		closing: "No urgency at all if this is already in motion on your side. Please reach out if anything needs clarifying.",
	},
	{
		subject: "Checking in on your open {invoice}",
		opening: "I wanted to check in regarding the following open {invoice} on your account:",
		closing: "If there is anything we can do to make settlement easier, or if you would like to discuss the account, I am happy to help.",
	},
	{
		subject: "Your account: open {invoice} to review",
		opening: "I am reaching out personally about the following {invoice}, which {remain} open for a while now:",
		closing: "Your relationship with us matters a great deal, and I would welcome a brief call to make sure everything is in order on the account.",
	},
}

// toneFor selects the template for an escalation level.
func toneFor(level int, vip bool) messageTone {
	if level < 1 {
		level = 1
	}
	if vip {
		switch {
		case level <= 2:
			return vipTones[0]
		case level <= 4:
			return vipTones[1]
		default:
			return vipTones[2]
		}
	}
	if level > len(standardTones) {
		level = len(standardTones)
	}
	return standardTones[level-1]
}

// expand fills the number-agreement tokens for the given invoice count.
func expand(template string, count int) string {
	r := strings.NewReplacer("{invoice}", "invoice", "{remain}", "remains", "{appear}", "appears")
	if count > 1 {
		r = strings.NewReplacer("{invoice}", "invoices", "{remain}", "remain", "{appear}", "appear")
	}
	return r.Replace(template)
}
