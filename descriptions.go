package pmac

import (
	"fmt"
)

var globalDescriptions = map[int]string{
	0:  "Serial card number",
	1:  "Serial port mode",
	2:  "Control panel port activation",
	3:  "I/O handshake control",
	4:  "Communications integrity mode",
	5:  "PLC program control",
	6:  "Error reporting mode",
	7:  "Phase cycle extension",
	8:  "Real-time interrupt period",
	9:  "Full/abbreviated listing control",
	10: "Servo interrupt time",
	11: "Programmed move calculation time",
	12: "Lookahead time spline enable",
	13: "Foreground in-position check enable",
	14: "Temporary buffer save enable",
	15: "Degree/radian control for user trig functions",
	16: "Rotary buffer request on point",
	17: "Rotary buffer request off point",
	18: "Fixed buffer full warning point",
	19: "Clock source I-variable number",
	20: "MACRO IC 0 base address",
	24: "Main DPRAM base address",
	30: "Compensation table wrap enable",
	37: "Additional wait states",
	39: "UBUS accessory ID variable display control",
	40: "Watchdog timer reset value",
	42: "Spline/PVT time control mode",
	52: "CPU frequency control",
	60: "Filtered velocity sample time",
	68: "Coordinate system activation control",
}

var motorDescriptions = map[int]string{
	0:  "Motor activation",
	1:  "Motor commutation enable",
	2:  "Motor command output address",
	3:  "Motor position loop feedback address",
	4:  "Motor velocity loop feedback address",
	5:  "Motor master position address",
	6:  "Motor master follow enable",
	7:  "Motor master scale factor",
	8:  "Motor position scale factor",
	9:  "Motor velocity-loop scale factor",
	10: "Motor power-on servo position address",
	11: "Motor fatal following error limit",
	12: "Motor warning following error limit",
	13: "Motor software positive position limit",
	14: "Motor software negative position limit",
	15: "Motor abort/limit deceleration rate",
	16: "Motor maximum program velocity",
	17: "Motor maximum program acceleration",
	19: "Motor maximum jog/home acceleration",
	22: "Motor jog speed",
	23: "Motor homing speed and direction",
	24: "Motor flag mode control",
	25: "Motor flag address",
	28: "Motor in-position band",
	30: "Motor PID proportional gain",
	31: "Motor PID derivative gain",
	32: "Motor PID velocity feed forward gain",
	33: "Motor PID integral gain",
	34: "Motor PID integration mode",
	35: "Motor PID acceleration feed forward gain",
	68: "Motor friction feedforward",
	69: "Motor output command limit",
}

var csDescriptions = map[int]string{
	13: "CS segmentation time",
	50: "CS blend disable",
	87: "CS default program acceleration time",
	88: "CS default program S-curve time",
	90: "CS feedrate time units",
}

var iSevenThousandDescriptions = map[int]string{
	0: "Servo IC PWM frequency control",
	1: "Servo IC phase clock frequency control",
	2: "Servo IC servo clock frequency control",
	3: "Servo IC hardware clock control",
	4: "Servo IC PWM deadtime / PFM pulse width control",
	7: "Servo IC phase/servo clock direction",
}

// Describe returns a short description of an address, or "" when none is
// known.
func Describe(addr string) string {
	prefix, n := splitAddress(addr)
	if prefix != "i" || n < 0 {
		return ""
	}
	switch {
	case n < 100:
		return globalDescriptions[n]
	case n < 3300:
		if d, ok := motorDescriptions[n%100]; ok {
			return fmt.Sprintf("%s (motor %d)", d, n/100)
		}
	case n >= 5100 && n < 6700:
		if d, ok := csDescriptions[n%100]; ok {
			return fmt.Sprintf("%s (CS %d)", d, n/100-50)
		}
	case n >= 6800 && n < 7400:
		if d, ok := iSevenThousandDescriptions[n%10]; ok {
			return d
		}
	}
	return ""
}
