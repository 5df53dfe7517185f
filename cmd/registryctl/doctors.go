package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/vitalmed/staff-registry/pkg/registry"
)

func runDoctors(cc *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: registryctl doctors <list|get|create|update|delete|counts> [flags]")
	}

	if !cc.manager.Current().Authenticated() {
		return errors.New("not signed in")
	}

	switch args[0] {
	case "list":
		return runDoctorsList(cc, args[1:])
	case "get":
		return runDoctorsGet(cc, args[1:])
	case "create":
		return runDoctorsCreate(cc, args[1:])
	case "update":
		return runDoctorsUpdate(cc, args[1:])
	case "delete":
		return runDoctorsDelete(cc, args[1:])
	case "counts":
		return runDoctorsCounts(cc, args[1:])
	default:
		return fmt.Errorf("unknown doctors subcommand %q", args[0])
	}
}

func runDoctorsList(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("doctors list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	specialty := fs.String("specialty", "", "only doctors with this specialty")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := cc.client.ListDoctors(cc.ctx, registry.ListDoctorsOptions{
		Specialty: *specialty,
		Page:      *page,
		Limit:     *limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLICENSE\tSPECIALTY\tEMAIL")
	for _, d := range result.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.LicenseNumber, d.Specialty, d.Email)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cc.out, "\npage %d of %d (%d doctors)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func runDoctorsGet(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("doctors get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	license := fs.String("license", "", "look up by license number instead of id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		doctor *registry.Doctor
		err    error
	)
	switch {
	case *license != "":
		doctor, err = cc.client.GetDoctorByLicense(cc.ctx, *license)
	case fs.NArg() == 1:
		doctor, err = cc.client.GetDoctor(cc.ctx, fs.Arg(0))
	default:
		return errors.New("usage: registryctl doctors get <doctor-id> | -license <number>")
	}
	if err != nil {
		return err
	}
	return printDoctor(cc.out, doctor)
}

func runDoctorsCreate(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("doctors create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "display name (required)")
	license := fs.String("license", "", "license number (required)")
	specialty := fs.String("specialty", "", "specialty (required)")
	email := fs.String("email", "", "contact email (required)")
	hospital := fs.String("hospital", "", "hospital id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *license == "" || *specialty == "" || *email == "" {
		fs.Usage()
		return errors.New("-name, -license, -specialty and -email are required")
	}

	doctor, err := cc.client.CreateDoctor(cc.ctx, registry.DoctorInput{
		Name:          *name,
		LicenseNumber: *license,
		Specialty:     *specialty,
		Email:         *email,
		HospitalID:    *hospital,
	})
	if err != nil {
		return err
	}
	return printDoctor(cc.out, doctor)
}

func runDoctorsUpdate(cc *commandContext, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("usage: registryctl doctors update <doctor-id> [flags]")
	}
	id := args[0]

	fs := flag.NewFlagSet("doctors update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "new display name")
	license := fs.String("license", "", "new license number")
	specialty := fs.String("specialty", "", "new specialty")
	email := fs.String("email", "", "new contact email")
	hospital := fs.String("hospital", "", "new hospital id")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	// Only flags the operator actually passed become part of the update,
	// so an empty -name clears the field while an omitted one keeps it.
	var update registry.DoctorUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			update.Name = name
		case "license":
			update.LicenseNumber = license
		case "specialty":
			update.Specialty = specialty
		case "email":
			update.Email = email
		case "hospital":
			update.HospitalID = hospital
		}
	})
	if update == (registry.DoctorUpdate{}) {
		return errors.New("nothing to update, pass at least one field flag")
	}

	doctor, err := cc.client.UpdateDoctor(cc.ctx, id, update)
	if err != nil {
		return err
	}
	return printDoctor(cc.out, doctor)
}

func runDoctorsDelete(cc *commandContext, args []string) error {
	fs := flag.NewFlagSet("doctors delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: registryctl doctors delete <doctor-id> [-yes]")
	}
	id := fs.Arg(0)

	if !*yes {
		answer, err := promptLine(fmt.Sprintf("delete doctor %s? [y/N]: ", id))
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Fprintln(cc.out, "aborted")
			return nil
		}
	}

	if err := cc.client.DeleteDoctor(cc.ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cc.out, "doctor %s deleted\n", id)
	return nil
}

func runDoctorsCounts(cc *commandContext, _ []string) error {
	counts, err := cc.client.DoctorCounts(cc.ctx)
	if err != nil {
		return err
	}

	specialties := make([]string, 0, len(counts.BySpecialty))
	for specialty := range counts.BySpecialty {
		specialties = append(specialties, specialty)
	}
	sort.Strings(specialties)

	tw := tabwriter.NewWriter(cc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPECIALTY\tDOCTORS")
	for _, specialty := range specialties {
		fmt.Fprintf(tw, "%s\t%d\n", specialty, counts.BySpecialty[specialty])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cc.out, "\n%d doctors total\n", counts.Total)
	return nil
}

func printDoctor(w io.Writer, d *registry.Doctor) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLICENSE\tSPECIALTY\tEMAIL\tHOSPITAL")
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		d.ID, d.Name, d.LicenseNumber, d.Specialty, d.Email, orDash(d.HospitalID))
	return tw.Flush()
}
