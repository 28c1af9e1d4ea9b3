package bytecode

import "testing"

func TestOpStringNamesEveryOpcode(t *testing.T) {
	cases := map[Op]string{
		Halt:         "HALT",
		NoOp:         "NOOP",
		AccessField:  "ACCESS_FIELD",
		AccessTemp:   "ACCESS_TEMP",
		PushLiteral:  "PUSH_LITERAL",
		AccessClass:  "ACCESS_CLASS",
		StoreField:   "STORE_FIELD",
		StoreTemp:    "STORE_TEMP",
		SendMsg:      "SEND_MSG",
		SendSuperMsg: "SEND_SUPER_MSG",
		DupStack:     "DUP_STACK",
		DiscardStack: "DISCARD_STACK",
		ReturnStack:  "RETURN_STACK",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
	if got := Op(200).String(); got != "UNKNOWN" {
		t.Errorf("an unknown opcode names itself UNKNOWN, got %q", got)
	}
}
