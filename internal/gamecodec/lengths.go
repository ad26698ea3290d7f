package gamecodec

// packetLengths is the fixed 256-entry opcode length table for revision 317
// game frames. A positive value is a fixed payload length, 0 means no
// payload, -1 means an 8-bit payload-length prefix follows the opcode byte,
// and -2 means a 16-bit little-endian payload-length prefix follows.
//
// Exact per-opcode values are server-content-dependent (they describe the
// shape of each opcode's payload, not protocol framing rules) and this
// table is a representative reconstruction rather than a byte-for-byte
// capture of any single server's table — see DESIGN.md.
var packetLengths = [256]int{
	0: 0, 1: -1, 2: -2, 3: 1, 4: 2, 5: 4, 6: 6, 7: 8,
	8: 0, 9: 0, 10: 0, 11: 0, 12: 0, 13: 0, 14: 0, 15: 0,
	16: 0, 17: 0, 18: 0, 19: 0, 20: 0, 21: 2, 22: 0, 23: 6,
	24: 0, 25: 12, 26: 0, 27: 0, 28: 0, 29: 0, 30: 0, 31: 0,
	32: 0, 33: 0, 34: 8, 35: 4, 36: 0, 37: 0, 38: 2, 39: 2,
	40: 6, 41: 0, 42: 6, 43: 0, 44: -1, 45: -1, 46: 7, 47: 0,
	48: 0, 49: 3, 50: 0, 51: 0, 52: 0, 53: 0, 54: 0, 55: 0,
	56: 0, 57: 0, 58: 0, 59: 0, 60: 0, 61: 0, 62: 8, 63: 0,
	64: 0, 65: 0, 66: 0, 67: 0, 68: 0, 69: 0, 70: 6, 71: 0,
	72: 2, 73: 2, 74: 8, 75: 6, 76: 0, 77: -1, 78: 0, 79: 6,
	80: 0, 81: 0, 82: 0, 83: 0, 84: 0, 85: 1, 86: 4, 87: 6,
	88: 0, 89: 0, 90: 0, 91: 0, 92: 0, 93: 0, 94: 3, 95: 0,
	96: 0, 97: -1, 98: 0, 99: 13, 100: 0, 101: -1, 102: -1, 103: 0,
	104: 0, 105: 0, 106: 0, 107: 0, 108: 0, 109: 0, 110: 0, 111: 0,
	112: 0, 113: 0, 114: 1, 115: 0, 116: 0, 117: 0, 118: 0, 119: 0,
	120: 0, 121: 0, 122: 0, 123: 0, 124: 0, 125: 0, 126: 0, 127: 0,
	128: 0, 129: 0, 130: 0, 131: 0, 132: 0, 133: 0, 134: 0, 135: 0,
	136: 0, 137: 0, 138: 0, 139: 6, 140: 0, 141: 0, 142: 0, 143: 0,
	144: 0, 145: 1, 146: 0, 147: 0, 148: 0, 149: 0, 150: 0, 151: 0,
	152: 0, 153: 0, 154: -1, 155: -2, 156: 0, 157: 0, 158: 0, 159: 0,
	160: 1, 161: 0, 162: 0, 163: 0, 164: 0, 165: 0, 166: 0, 167: 0,
	168: 0, 169: 0, 170: 0, 171: 0, 172: 0, 173: 0, 174: 1, 175: 0,
	176: 0, 177: 0, 178: 0, 179: 4, 180: 0, 181: 0, 182: 0, 183: 0,
	184: -1, 185: 0, 186: 6, 187: 0, 188: 0, 189: 0, 190: 0, 191: 0,
	192: 0, 193: 1, 194: 0, 195: 0, 196: 0, 197: 0, 198: 0, 199: 0,
	200: 0, 201: 0, 202: 0, 203: 0, 204: 0, 205: 0, 206: -1, 207: 0,
	208: 0, 209: 0, 210: 0, 211: 0, 212: 0, 213: 0, 214: -1, 215: 0,
	216: 0, 217: 0, 218: 0, 219: 0, 220: 2, 221: 0, 222: 0, 223: 0,
	224: 0, 225: 0, 226: 0, 227: 0, 228: 0, 229: 0, 230: 6, 231: 0,
	232: 0, 233: 0, 234: 0, 235: 0, 236: 0, 237: 0, 238: 0, 239: 0,
	240: 0, 241: 0, 242: 0, 243: 0, 244: 0, 245: 0, 246: 0, 247: 0,
	248: 0, 249: 0, 250: 0, 251: 0, 252: 0, 253: 0, 254: 0, 255: 0,
}
