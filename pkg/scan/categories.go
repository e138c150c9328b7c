package scan

import (
	"path"
	"regexp"
	"strings"
)

// fileKind selects which categories apply to a file. Documents (.md) get
// every category, scripts (.py .sh .bash) and config files (.json .yaml
// .yml) get the subsets that make sense for them, and everything else is
// only checked for invisible characters.
type fileKind int

const (
	kindOther fileKind = iota
	kindDocument
	kindScript
	kindConfig
)

func kindOf(name string) fileKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".md":
		return kindDocument
	case ".py", ".sh", ".bash":
		return kindScript
	case ".json", ".yaml", ".yml":
		return kindConfig
	}
	return kindOther
}

func appliesAll(fileKind) bool         { return true }
func appliesDocuments(k fileKind) bool { return k == kindDocument }
func appliesDocScript(k fileKind) bool { return k == kindDocument || k == kindScript }
func appliesContent(k fileKind) bool   { return k != kindOther }

type emitFunc func(line int, description, matched string)

type scanFunc func(lines []string, emit emitFunc)

// pattern pairs a compiled expression with the finding description it
// produces.
type pattern struct {
	re          *regexp.Regexp
	description string
}

// category is one independent detection concern. Within a category the
// first matching pattern wins per line; categories never suppress each
// other.
type category struct {
	name           string
	severity       Severity
	appliesTo      func(fileKind) bool
	recommendation string
	scan           scanFunc
}

func regexScan(patterns []pattern) scanFunc {
	return func(lines []string, emit emitFunc) {
		for i, line := range lines {
			for _, p := range patterns {
				if m := p.re.FindString(line); m != "" {
					emit(i+1, p.description, m)
					break
				}
			}
		}
	}
}

func invisibleScan(lines []string, emit emitFunc) {
	for i, line := range lines {
		found := invisibleIn(line)
		if len(found) == 0 {
			continue
		}
		emit(i+1, "Invisible or directional-control characters: "+formatCodepoints(found), line)
	}
}

// htmlCommentScan tracks <!-- --> comments across lines. Each comment
// yields one finding at its opening line, carrying the comment content.
func htmlCommentScan(lines []string, emit emitFunc) {
	const desc = "HTML comment invisible in rendered markdown"

	inComment := false
	startLine := 0
	var content strings.Builder

	for i, line := range lines {
		rest := line
		for {
			if !inComment {
				idx := strings.Index(rest, "<!--")
				if idx < 0 {
					break
				}
				inComment = true
				startLine = i + 1
				content.Reset()
				rest = rest[idx+4:]
				continue
			}
			idx := strings.Index(rest, "-->")
			if idx < 0 {
				content.WriteString(rest)
				content.WriteString(" ")
				break
			}
			content.WriteString(rest[:idx])
			emit(startLine, desc, strings.TrimSpace(content.String()))
			inComment = false
			rest = rest[idx+3:]
		}
	}
	if inComment {
		emit(startLine, "Unterminated HTML comment", strings.TrimSpace(content.String()))
	}
}

var categories = []category{
	{
		name:           "invisible_unicode",
		severity:       SeverityCritical,
		appliesTo:      appliesAll,
		recommendation: "Delete the invisible characters; they can hide instructions from human review.",
		scan:           invisibleScan,
	},
	{
		name:           "exfiltration_url",
		severity:       SeverityCritical,
		appliesTo:      appliesContent,
		recommendation: "Remove the remote image or replace it with a local asset; image URLs can exfiltrate data when rendered.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`!\[.*?\]\(https?://[^)]*[${]`), "Markdown image URL with embedded variable interpolation"},
			{regexp.MustCompile(`(?i)<img\s[^>]*src\s*=\s*["']https?://`), "HTML image tag loading a remote URL"},
			{regexp.MustCompile(`!\[.*?\]\(https?://[^)]*\?[^)]*=`), "Markdown image URL carrying query parameters"},
		}),
	},
	{
		name:           "shell_pipe_execution",
		severity:       SeverityCritical,
		appliesTo:      appliesDocScript,
		recommendation: "Download the script to a file, review it, then run it explicitly.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(curl|wget)\s+[^|]*\|\s*(bash|sh|zsh|python[23]?|perl|ruby|node)\b`), "Downloads a script and pipes it straight into an interpreter"},
		}),
	},
	{
		name:           "credential_reference",
		severity:       SeverityWarning,
		appliesTo:      appliesContent,
		recommendation: "Check why the skill needs credential material; legitimate skills rarely read key files or secret variables.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)(\.aws/credentials|\.ssh/id_[a-z0-9]+|\.netrc|\.npmrc|\.pypirc|\.git-credentials|\.docker/config\.json|\.kube/config|id_rsa|id_ed25519)`), "References a credential or key file path"},
			{regexp.MustCompile(`\b[A-Z][A-Z0-9_]*(_SECRET|_PASSWORD|_TOKEN|_API_KEY|_ACCESS_KEY|_PRIVATE_KEY)S?\b|\b(SECRET_KEY|API_KEY|AUTH_TOKEN|ACCESS_TOKEN)\b`), "References a sensitive environment variable"},
		}),
	},
	{
		name:           "external_url",
		severity:       SeverityWarning,
		appliesTo:      appliesDocuments,
		recommendation: "Verify the destination host; instructions should not direct the agent at arbitrary URLs.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(curl|wget)\s+(-[a-zA-Z-]+\s+)*['"]?https?://`), "Shell fetch of an external URL"},
			{regexp.MustCompile(`(?i)\b(fetch|requests\.(get|post|put|delete)|urllib\.request\.[a-z]+|axios(\.[a-z]+)?|http\.get)\s*\(`), "Code call fetching an external URL"},
		}),
	},
	{
		name:           "command_execution",
		severity:       SeverityWarning,
		appliesTo:      appliesDocScript,
		recommendation: "Confirm each executed command is necessary and its arguments cannot be influenced by untrusted input.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(eval|exec)\s*\(`), "Dynamic code evaluation"},
			{regexp.MustCompile(`(?i)\b(os\.system|subprocess\.(run|call|Popen|check_output|check_call)|popen)\s*\(`), "Spawns a system command"},
			{regexp.MustCompile(`(?i)\bchild_process\b`), "Node child process execution"},
		}),
	},
	{
		name:           "instruction_override",
		severity:       SeverityWarning,
		appliesTo:      appliesDocuments,
		recommendation: "Remove language that tells the agent to discard its operating instructions.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(ignore|disregard|forget|discard|override)\b[^.\n]{0,40}\b(previous|prior|above|earlier|preceding|all)\b[^.\n]{0,20}\b(instructions?|directives?|prompts?|rules?|guidelines?|context)\b`), "Attempts to cancel earlier instructions"},
			{regexp.MustCompile(`(?i)\bdo not\b[^.\n]{0,30}\b(follow|obey|listen to)\b[^.\n]{0,30}\b(instructions?|rules?|guidelines?)\b`), "Attempts to cancel earlier instructions"},
		}),
	},
	{
		name:           "role_hijacking",
		severity:       SeverityWarning,
		appliesTo:      appliesDocuments,
		recommendation: "Skills describe tasks; they should not redefine who the agent is.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\byou are now\b`), "Reassigns the agent's role"},
			{regexp.MustCompile(`(?i)\b(pretend to be|act as if you|assume the role of|take on the role of)\b`), "Reassigns the agent's role"},
			{regexp.MustCompile(`(?i)\bfrom now on,? you\b`), "Reassigns the agent's role"},
			{regexp.MustCompile(`(?i)\bnew persona\b`), "Reassigns the agent's role"},
		}),
	},
	{
		name:           "safety_bypass",
		severity:       SeverityWarning,
		appliesTo:      appliesDocuments,
		recommendation: "Remove requests to weaken or disable safety behavior.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(bypass|disable|turn off|remove|circumvent)\b[^.\n]{0,30}\b(safety|guardrails?|filters?|restrictions?|safeguards?|content polic(y|ies))\b`), "Asks for safety controls to be disabled"},
			{regexp.MustCompile(`(?i)\bjailbreak`), "Jailbreak language"},
			{regexp.MustCompile(`(?i)\bdeveloper mode\b`), "Asks to enable an unrestricted mode"},
		}),
	},
	{
		name:           "html_comment",
		severity:       SeverityWarning,
		appliesTo:      appliesDocuments,
		recommendation: "Move comment content into visible text or delete it; rendered views hide HTML comments.",
		scan:           htmlCommentScan,
	},
	{
		name:           "encoded_content",
		severity:       SeverityInfo,
		appliesTo:      appliesContent,
		recommendation: "Decode and review the content, or replace it with plaintext.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`), "Long base64-looking run"},
			{regexp.MustCompile(`(\\x[0-9a-fA-F]{2}){8,}`), "Repeated hex escape sequence"},
			{regexp.MustCompile(`(\\u[0-9a-fA-F]{4}){4,}`), "Repeated unicode escape sequence"},
			{regexp.MustCompile(`(&#x?[0-9a-fA-F]+;){5,}`), "Run of numeric HTML entities"},
			{regexp.MustCompile(`(%[0-9a-fA-F]{2}){8,}`), "Long URL-encoded run"},
		}),
	},
	{
		name:           "prompt_extraction",
		severity:       SeverityInfo,
		appliesTo:      appliesDocuments,
		recommendation: "Skills should not probe for the agent's hidden instructions.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(repeat|show|reveal|print|display|output)\b[^.\n]{0,30}\b(your|the)\b[^.\n]{0,20}\b(system prompt|initial prompt|hidden (rules|instructions)|instructions)\b`), "Tries to elicit the agent's hidden instructions"},
			{regexp.MustCompile(`(?i)\bwhat (are|were) your (instructions|rules)\b`), "Tries to elicit the agent's hidden instructions"},
		}),
	},
	{
		name:           "delimiter_injection",
		severity:       SeverityInfo,
		appliesTo:      appliesDocuments,
		recommendation: "Remove model-protocol delimiters; plain instructions never need them.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`<\|im_start\|>|<\|im_end\|>|<\|endoftext\|>|<\|system\|>|<\|user\|>|<\|assistant\|>|\[INST\]|\[/INST\]|<<SYS>>|<</SYS>>`), "Chat-protocol delimiter token in content"},
		}),
	},
	{
		name:           "cross_skill_escalation",
		severity:       SeverityInfo,
		appliesTo:      appliesDocuments,
		recommendation: "A skill should not modify other tools' configuration or pull in further packages.",
		scan: regexScan([]pattern{
			{regexp.MustCompile(`(?i)\b(install|download|fetch|add)\b[^.\n]{0,30}\b(another|additional|other|new)\b[^.\n]{0,20}\b(skills?|packages?|plugins?|extensions?)\b`), "Instructs the agent to install more packages"},
			{regexp.MustCompile(`(?i)(~|\$HOME|/home/[a-zA-Z0-9_-]+)/\.(claude|cursor|gemini|codex|vscode|config)\b`), "Reaches into another assistant's configuration directory"},
		}),
	},
}
