package goccm

// gateController keeps the tri-state gate machine of roots and ip clocks and
// issues at most one backend write per transition.
type gateController struct {
	backend PlatformClockBackend
}

func (c *gateController) request(n *ClockNode, on bool) error {
	if !n.kind.Gateable() {
		return clockErrorf(ErrorUnsupportedOperation, "%s clock %s has no gate", n.kind, n.name)
	}

	want := GateGated
	if on {
		want = GateUngated
	}

	switch n.state {
	case GateUncertain:
		// whatever the boot code left behind cannot be trusted, always write
		clockLog(n).Debugf("resolving uncertain gate to %s", want)

	case GateGated:
		if !on {
			clockLog(n).Debug("already gated")
			return nil
		}

	case GateUngated:
		if on {
			clockLog(n).Debug("already ungated")
			return nil
		}

	default:
		return clockErrorf(ErrorInvalidState, "clock %s has corrupt gate state %d", n.name, n.state)
	}

	err := c.backend.Gate(n.id, on)
	recordWrite(OpGate, err)
	if err != nil {
		return hardwareError("gate", n.id, err)
	}

	n.state = want
	clockLog(n).Debugf("gate is now %s", want)

	return nil
}
