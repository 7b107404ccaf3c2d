package message

import "fmt"

// Generic hardware and module messages.
const (
	HwReqInfo            uint16 = 0x0005
	HwGetInfo            uint16 = 0x0006
	HwNoFlashProgramming uint16 = 0x0018

	ModSetChanEnableState uint16 = 0x0210
	ModReqChanEnableState uint16 = 0x0211
	ModGetChanEnableState uint16 = 0x0212
)

// Motor control messages.
const (
	MotSetPosCounter uint16 = 0x0410
	MotReqPosCounter uint16 = 0x0411
	MotGetPosCounter uint16 = 0x0412

	MotSetVelParams uint16 = 0x0413
	MotReqVelParams uint16 = 0x0414
	MotGetVelParams uint16 = 0x0415

	MotSetLimSwitchParams uint16 = 0x0423
	MotReqLimSwitchParams uint16 = 0x0424
	MotGetLimSwitchParams uint16 = 0x0425

	MotSetPowerParams uint16 = 0x0426
	MotReqPowerParams uint16 = 0x0427
	MotGetPowerParams uint16 = 0x0428

	MotSetGenMoveParams uint16 = 0x043A
	MotReqGenMoveParams uint16 = 0x043B
	MotGetGenMoveParams uint16 = 0x043C

	MotSetHomeParams uint16 = 0x0440
	MotReqHomeParams uint16 = 0x0441
	MotGetHomeParams uint16 = 0x0442

	MotMoveHome      uint16 = 0x0443
	MotMoveHomed     uint16 = 0x0444
	MotMoveRelative  uint16 = 0x0448
	MotMoveAbsolute  uint16 = 0x0453
	MotMoveCompleted uint16 = 0x0464
)

// NanoTrack (piezo tracking) messages.
const (
	PzSetNTMode uint16 = 0x0603
	PzReqNTMode uint16 = 0x0604
	PzGetNTMode uint16 = 0x0605

	PzSetNTCircHomePos    uint16 = 0x0609
	PzReqNTCircHomePos    uint16 = 0x0610
	PzGetNTCircHomePos    uint16 = 0x0611
	PzMoveNTCircToHomePos uint16 = 0x0612
	PzReqNTCircCentrePos  uint16 = 0x0613
	PzGetNTCircCentrePos  uint16 = 0x0614

	PzSetNTCircParams uint16 = 0x0618
	PzReqNTCircParams uint16 = 0x0619
	PzGetNTCircParams uint16 = 0x061A

	PzSetNTCircDiaLUT uint16 = 0x0621
	PzReqNTCircDiaLUT uint16 = 0x0622
	PzGetNTCircDiaLUT uint16 = 0x0623

	PzReqNTTIAReading  uint16 = 0x0639
	PzGetNTTIAReading  uint16 = 0x063A
	PzSetNTFeedbackSrc uint16 = 0x063B
	PzReqNTFeedbackSrc uint16 = 0x063C
	PzGetNTFeedbackSrc uint16 = 0x063D
)

// Name returns the registered name of a message ID, or a hex string for an
// unknown ID.
func Name(id uint16) string {
	if l, ok := Lookup(id); ok {
		return l.Name
	}

	return fmt.Sprintf("0x%04X", id)
}
