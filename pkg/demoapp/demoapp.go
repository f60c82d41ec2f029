// Package demoapp is a small widget application registered as the "demo"
// entry point. It gives record and replay something to drive when no real
// application is wired in.
package demoapp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rekonder/qttester/pkg/capture"
	"github.com/rekonder/qttester/pkg/entrypoint"
	"github.com/rekonder/qttester/pkg/toolkit"
	"github.com/rekonder/qttester/pkg/widgets"
)

// ModuleName is the --main name of the demo application.
const ModuleName = "demo"

// Register adds the demo module to reg. Besides its main it exposes
// "demo.counter" and "demo.form".
func Register(reg *entrypoint.Registry) error {
	return reg.Register(entrypoint.Module{
		Name: ModuleName,
		Main: Main,
		Funcs: map[string]capture.MainFunc{
			"counter": Counter,
			"form":    Form,
		},
	})
}

// Main opens a window holding both the counter and the form.
func Main(ctx context.Context, app toolkit.Application) error {
	wapp, err := widgetApp(app)
	if err != nil {
		return err
	}
	win := wapp.NewWindow(widgets.TypeMainWindow, "main")
	buildCounter(win)
	buildForm(win)
	win.Show()
	return app.Exec(ctx)
}

// Counter opens a window with a button and a label counting its clicks.
func Counter(ctx context.Context, app toolkit.Application) error {
	wapp, err := widgetApp(app)
	if err != nil {
		return err
	}
	win := wapp.NewWindow(widgets.TypeMainWindow, "counter")
	buildCounter(win)
	win.Show()
	return app.Exec(ctx)
}

// Form opens a dialog with a text field, a check box and a submit button.
func Form(ctx context.Context, app toolkit.Application) error {
	wapp, err := widgetApp(app)
	if err != nil {
		return err
	}
	dlg := wapp.NewWindow(widgets.TypeDialog, "form")
	buildForm(dlg)
	dlg.Show()
	return app.Exec(ctx)
}

func widgetApp(app toolkit.Application) (*widgets.Application, error) {
	wapp, ok := app.(*widgets.Application)
	if !ok {
		return nil, fmt.Errorf("demo application needs the widgets toolkit, got %T", app)
	}
	return wapp, nil
}

func buildCounter(parent *widgets.Widget) {
	panel := widgets.NewWidget(parent, widgets.TypeWidget, "")
	panel.SetGeometry(toolkit.Rect{W: 200, H: 40})
	button := widgets.NewWidget(panel, widgets.TypePushButton, "increment")
	button.SetText("+1")
	button.SetGeometry(toolkit.Rect{W: 40, H: 20})
	label := widgets.NewWidget(panel, widgets.TypeLabel, "count")
	label.SetText("0")
	label.SetGeometry(toolkit.Rect{X: 50, W: 60, H: 20})

	clicks := 0
	button.OnClicked(func() {
		clicks++
		label.SetText(strconv.Itoa(clicks))
	})
}

func buildForm(parent *widgets.Widget) {
	panel := widgets.NewWidget(parent, widgets.TypeWidget, "")
	panel.SetGeometry(toolkit.Rect{Y: 40, W: 200, H: 80})
	name := widgets.NewWidget(panel, widgets.TypeLineEdit, "name")
	name.SetGeometry(toolkit.Rect{W: 120, H: 20})
	agree := widgets.NewWidget(panel, widgets.TypeCheckBox, "agree")
	agree.SetGeometry(toolkit.Rect{Y: 25, W: 20, H: 20})
	submit := widgets.NewWidget(panel, widgets.TypePushButton, "submit")
	submit.SetText("Submit")
	submit.SetGeometry(toolkit.Rect{Y: 50, W: 60, H: 20})
	status := widgets.NewWidget(panel, widgets.TypeLabel, "status")
	status.SetGeometry(toolkit.Rect{X: 70, Y: 50, W: 120, H: 20})

	checked := false
	agree.OnClicked(func() { checked = !checked })
	submit.OnClicked(func() {
		switch {
		case name.Text() == "":
			status.SetText("name required")
		case !checked:
			status.SetText("please agree")
		default:
			status.SetText("hello " + name.Text())
		}
	})
}
