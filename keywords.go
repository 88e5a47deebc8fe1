package pmac

// keywords are the canonical PMAC tokens.
var keywords = map[string]struct{}{}

var keywordList = [...]string{
	// Operators and punctuation
	"&", "#", "%", "(", ")", "=", "+", "-", "*", "/", "|", "^", ",", ":",
	"->", "..", "!=", "!>", "!<", "~", "!~", ">", "<", "?", "@", "\\",
	"{", "}", "[", "]", "'", "$", "$$", "$$$", "$$$***", "$*", "$$*",
	"??", "???",

	// Single letters: axes, variables, and one-letter commands
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",

	// M-variable address types
	"DP", "TWB", "TWD", "TWR", "TWS",

	// Functions
	"ABS", "ACOS", "ASIN", "ATAN", "ATAN2", "COS", "EXP", "INT", "LN",
	"SIN", "SQRT", "TAN",

	// Program flow
	"IF", "ELSE", "ENDIF", "WHILE", "ENDWHILE", "AND", "OR", "GOTO",
	"GOSUB", "CALL", "RETURN", "PRELUDE", "END", "WAIT", "STOP", "DWELL",
	"DELAY", "BLOCKSTART", "BLOCKSTOP", "PAUSE", "RESUME",

	// Motion modes
	"LINEAR", "RAPID", "CIRCLE1", "CIRCLE2", "SPLINE1", "SPLINE2", "PVT",
	"TM", "TA", "TS", "INC", "NORMAL", "FRAX", "NOFRAX", "PSET",
	"HOME", "HOMEZ", "CC0", "CC1", "CC2", "CC3", "CCR", "TSELECT", "TINIT",
	"TR", "TXYZ", "ADIS", "AROT", "IDIS", "IROT", "SETPHASE", "PMATCH",
	"LEARN", "MFLUSH",

	// Buffers
	"OPEN", "CLOSE", "CLEAR", "PROGRAM", "PLC", "PLCC", "FORWARD",
	"INVERSE", "ROTARY", "BUFFER", "GATHER", "ENDGATHER", "TRACE",
	"LOOKAHEAD", "LIST", "SIZE", "DEFINE", "UNDEFINE", "ALL", "DELETE",
	"ENABLE", "DISABLE", "DISPLAY", "LOCK", "UNLOCK", "PLOCK", "PUNLOCK",
	"ADDRESS", "COMMAND", "COMMANDA", "COMMANDP", "COMMANDR", "COMMANDS",
	"SENDA", "SENDC", "SENDP", "SENDR", "SENDS", "READ", "COMP", "TBUF",
	"UBUFFER", "CCBUF", "BLSEL",

	// On-line reporting and housekeeping
	"TYPE", "VERSION", "DATE", "CID", "CPU", "SID", "VID", "IDNUMBER",
	"IDC", "PASSWORD", "SAVE", "RESET", "UPDATE", "EAVERSION", "CHECKSUM",
	"PC", "PE", "PR", "MACROASCII", "MACROAUX", "MACROAUXREAD",
	"MACROAUXWRITE", "MACROMST", "MACROMSTASCII", "MACROMSTREAD",
	"MACROMSTWRITE", "MACROSLV", "MACROSLVREAD", "MACROSLVWRITE",
	"MACROSTASCII", "MS", "MSR", "MSW", "MSCLRF", "MSDATE", "MSREST",
	"MSRESET", "MSSAV", "MSALL",
}

// shortForms map PMAC list-back abbreviations onto one or more canonical tokens.
var shortForms = map[string][]string{
	"ADR":     {"ADDRESS"},
	"BSTART":  {"BLOCKSTART"},
	"BSTOP":   {"BLOCKSTOP"},
	"CIR1":    {"CIRCLE1"},
	"CIR2":    {"CIRCLE2"},
	"CLR":     {"CLEAR"},
	"CMD":     {"COMMAND"},
	"CMDA":    {"COMMANDA"},
	"CMDP":    {"COMMANDP"},
	"CMDR":    {"COMMANDR"},
	"CMDS":    {"COMMANDS"},
	"DEF":     {"DEFINE"},
	"DEL":     {"DELETE"},
	"DIS":     {"DISABLE"},
	"DISP":    {"DISPLAY"},
	"DISPLC":  {"DISABLE", "PLC"},
	"DISPLCC": {"DISABLE", "PLCC"},
	"DLY":     {"DELAY"},
	"DWE":     {"DWELL"},
	"ENA":     {"ENABLE"},
	"ENAPLC":  {"ENABLE", "PLC"},
	"ENAPLCC": {"ENABLE", "PLCC"},
	"ENDG":    {"ENDGATHER"},
	"ENDI":    {"ENDIF"},
	"ENDW":    {"ENDWHILE"},
	"FWD":     {"FORWARD"},
	"GAT":     {"GATHER"},
	"HM":      {"HOME"},
	"HMZ":     {"HOMEZ"},
	"INV":     {"INVERSE"},
	"LIN":     {"LINEAR"},
	"LOOK":    {"LOOKAHEAD"},
	"MI":      {"I"},
	"NRM":     {"NORMAL"},
	"PROG":    {"PROGRAM"},
	"RET":     {"RETURN"},
	"ROT":     {"ROTARY"},
	"RPD":     {"RAPID"},
	"SPL1":    {"SPLINE1"},
	"SPL2":    {"SPLINE2"},
	"TSEL":    {"TSELECT"},
	"UNDEF":   {"UNDEFINE"},
	"VER":     {"VERSION"},
}

// tokenPairs are adjacent tokens merged into one.
var tokenPairs = map[[2]string]string{
	{"END", "WHILE"}:  "ENDWHILE",
	{"END", "IF"}:     "ENDIF",
	{"END", "GATHER"}: "ENDGATHER",
}

// maxKeywordLen is the length of the longest entry in either table.
var maxKeywordLen int

func init() {
	for _, kw := range keywordList {
		keywords[kw] = struct{}{}
		if len(kw) > maxKeywordLen {
			maxKeywordLen = len(kw)
		}
	}
	for sf := range shortForms {
		if len(sf) > maxKeywordLen {
			maxKeywordLen = len(sf)
		}
	}
}
