package mdxvision_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
)

func ExampleEngine_Interpret() {
	ctx := context.Background()
	eng, err := mdxvision.New(ctx)
	if err != nil {
		panic(err)
	}

	cmd := eng.Interpret(ctx, "Hey MDX, load patient 12724066 then show vitals", "en")
	for _, it := range cmd.Intents {
		fmt.Println(it)
	}

	// Output:
	// LoadPatient("12724066")
	// ShowSection(vitals)
}

func ExampleEngine_Execute() {
	ctx := context.Background()
	eng, err := mdxvision.New(ctx)
	if err != nil {
		panic(err)
	}

	cmd := eng.Interpret(ctx, "order chest x-ray then switch to epic", "en")
	_, err = eng.Execute(ctx, cmd, executor.Bindings{
		Order: func(_ context.Context, o domain.Order) error {
			fmt.Printf("order %s: %s\n", o.Type, o.Details)
			return nil
		},
		SwitchTarget: func(_ context.Context, s domain.SwitchTarget) error {
			fmt.Println("switch to", s.Target)
			return nil
		},
	})
	fmt.Println("err:", err)

	// Output:
	// order imaging: chest x-ray
	// switch to epic
	// err: <nil>
}

func ExampleRunner() {
	ctx := context.Background()
	eng, err := mdxvision.New(ctx)
	if err != nil {
		panic(err)
	}

	r := &mdxvision.Runner{
		Input:    strings.NewReader("show allergies\ncheck in patient 2\nexit\n"),
		Output:   os.Stdout,
		Headless: true,
	}
	if err := r.Run(ctx, eng); err != nil {
		panic(err)
	}

	// Output:
	// showing allergies
	// checking in patient #2
}
