// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bbnote/goccm"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
)

const dummyParentName = "dummy"

type shell struct {
	tree    *goccm.ClockTree
	backend *goccm.SimBackend
	out     io.Writer
}

func (s *shell) usage() string {
	return `commands:
	on CLOCK
	off CLOCK
	rate CLOCK
	set-rate -rate HZ [-q] CLOCK
	round-rate -rate HZ CLOCK
	parent -to PARENT CLOCK
	dump [-a]
	ops`
}

func (s *shell) exec(line string) error {
	args := strings.Fields(line)

	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}

	cmd, args := args[0], args[1:]

	switch cmd {
	case "on", "off":
		id, err := s.clockArg(args)
		if err != nil {
			return err
		}
		if cmd == "on" {
			return s.tree.TurnOn(id)
		}
		return s.tree.TurnOff(id)

	case "rate":
		id, err := s.clockArg(args)
		if err != nil {
			return err
		}
		rate, err := s.tree.GetRate(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s: %d Hz\n", args[0], rate)
		return nil

	case "set-rate":
		flag, args := flags.New(args, "-q")
		parm, args := parms.New(args, "-rate")

		rate, err := parseRate(parm.ByName["-rate"])
		if err != nil {
			return err
		}
		id, err := s.clockArg(args)
		if err != nil {
			return err
		}

		obtained, err := s.tree.SetRate(id, rate)
		if goccm.IsAlreadySet(err) {
			if !flag.ByName["-q"] {
				fmt.Fprintf(s.out, "%s: already at %d Hz\n", args[0], obtained)
			}
			return nil
		}
		if err != nil {
			return err
		}
		if !flag.ByName["-q"] {
			fmt.Fprintf(s.out, "%s: %d Hz (requested %d Hz)\n", args[0], obtained, rate)
		}
		return nil

	case "round-rate":
		parm, args := parms.New(args, "-rate")

		rate, err := parseRate(parm.ByName["-rate"])
		if err != nil {
			return err
		}
		id, err := s.clockArg(args)
		if err != nil {
			return err
		}
		obtained, err := s.tree.RoundRate(id, rate)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s: %d Hz would give %d Hz\n", args[0], rate, obtained)
		return nil

	case "parent":
		parm, args := parms.New(args, "-to")

		id, err := s.clockArg(args)
		if err != nil {
			return err
		}

		to := parm.ByName["-to"]
		if to == "" {
			return errors.New("parent: missing -to PARENT")
		}

		parentID := goccm.DummyClockID
		if to != dummyParentName {
			parentID, err = s.tree.Resolve(to)
			if err != nil {
				return err
			}
		}
		return s.tree.AssignParent(id, parentID)

	case "dump":
		flag, _ := flags.New(args, "-a")
		return s.dump(flag.ByName["-a"])

	case "ops":
		for i, op := range s.backend.Ops() {
			fmt.Fprintf(s.out, "%3d %s\n", i, op)
		}
		return nil

	case "help":
		fmt.Fprintln(s.out, s.usage())
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *shell) clockArg(args []string) (goccm.ClockID, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one CLOCK argument")
	}
	return s.tree.Resolve(args[0])
}

func parseRate(value string) (uint32, error) {
	if value == "" {
		return 0, errors.New("missing -rate HZ")
	}
	rate, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", value, err)
	}
	return uint32(rate), nil
}

func (s *shell) dump(all bool) error {
	status, err := s.tree.Snapshot()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tRATE\tGATE\tPARENT\tDIV\tCONFIG")

	for _, c := range status {
		if !all && c.Rate == 0 {
			continue
		}

		gate := "-"
		if c.Kind.Gateable() {
			gate = c.State.String()
		}

		config := "-"
		if c.Kind.IsPll() && c.SelectedConfig >= 0 {
			config = strconv.Itoa(c.SelectedConfig)
		}

		parent := c.Parent
		if parent == "" {
			parent = "-"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
			c.ID, c.Name, c.Kind, c.Rate, gate, parent, c.Divider, config)
	}

	return w.Flush()
}
