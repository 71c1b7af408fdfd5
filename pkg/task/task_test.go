package task

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given a new task", t, func() {
		state := New("summarize the report", "conv-1")

		Convey("It starts in created with an empty plan", func() {
			So(state.ID, ShouldNotBeEmpty)
			So(state.Status, ShouldEqual, StatusCreated)
			So(state.Plan, ShouldBeEmpty)
			So(state.CurrentStepIndex, ShouldEqual, 0)
			So(state.Context, ShouldNotBeNil)
			So(state.PendingInput, ShouldBeNil)
		})
	})
}

func TestStatusTerminal(t *testing.T) {
	Convey("Given the status set", t, func() {
		Convey("Only succeeded and failed are terminal", func() {
			So(StatusSucceeded.Terminal(), ShouldBeTrue)
			So(StatusFailed.Terminal(), ShouldBeTrue)
			So(StatusCreated.Terminal(), ShouldBeFalse)
			So(StatusPlanning.Terminal(), ShouldBeFalse)
			So(StatusRunning.Terminal(), ShouldBeFalse)
			So(StatusSuspended.Terminal(), ShouldBeFalse)
			So(StatusValidating.Terminal(), ShouldBeFalse)
		})
	})
}

func TestCursor(t *testing.T) {
	Convey("Given a task with a two step plan", t, func() {
		state := New("do two things", "")
		state.Plan = []Step{NewStep("first"), NewStep("second")}

		Convey("The cursor points at the first step", func() {
			So(state.CurrentStep().Title, ShouldEqual, "first")
		})

		Convey("Advancing moves to the second step and then past the end", func() {
			state.AdvanceCursor()
			So(state.CurrentStep().Title, ShouldEqual, "second")

			state.AdvanceCursor()
			So(state.CurrentStep(), ShouldBeNil)
		})
	})
}

func TestCompletedPrefix(t *testing.T) {
	Convey("Given a plan with a completed prefix", t, func() {
		state := New("prefix", "")
		state.Plan = []Step{NewStep("a"), NewStep("b"), NewStep("c")}
		state.Plan[0].Status = StepCompleted

		Convey("The prefix stops at the first non-completed step", func() {
			So(state.CompletedPrefix(), ShouldEqual, 1)

			state.Plan[1].Status = StepCompleted
			So(state.CompletedPrefix(), ShouldEqual, 2)
		})

		Convey("A failed step in the middle ends the prefix", func() {
			state.Plan[1].Status = StepFailed
			state.Plan[2].Status = StepCompleted
			So(state.CompletedPrefix(), ShouldEqual, 1)
		})
	})
}

func TestClone(t *testing.T) {
	Convey("Given a populated task", t, func() {
		state := New("clone me", "conv-2")
		step := NewStep("fetch")
		step.ToolName = "fetch_url"
		step.ToolInput = map[string]any{"url": "https://example.com"}
		state.Plan = []Step{step}
		state.Context["region"] = "eu"
		state.PendingInput = &PendingInput{
			StepID:      step.ID,
			ToolName:    "fetch_url",
			MissingKeys: []string{"token"},
		}

		clone := state.Clone()

		Convey("The clone matches the original", func() {
			So(clone.ID, ShouldEqual, state.ID)
			So(clone.Plan[0].ToolInput["url"], ShouldEqual, "https://example.com")
			So(clone.PendingInput.MissingKeys, ShouldResemble, []string{"token"})
		})

		Convey("Mutating the clone leaves the original untouched", func() {
			clone.Context["region"] = "us"
			clone.Plan[0].ToolInput["url"] = "https://other.example"
			clone.PendingInput.MissingKeys[0] = "secret"

			So(state.Context["region"], ShouldEqual, "eu")
			So(state.Plan[0].ToolInput["url"], ShouldEqual, "https://example.com")
			So(state.PendingInput.MissingKeys[0], ShouldEqual, "token")
		})

		Convey("Cloning nil returns nil", func() {
			var nothing *State
			So(nothing.Clone(), ShouldBeNil)
		})
	})
}

func TestFail(t *testing.T) {
	Convey("Given a running task", t, func() {
		state := New("doomed", "")
		state.ToStatus(StatusRunning)

		Convey("Fail records the reason and the terminal status", func() {
			state.Fail("step exploded")
			So(state.Status, ShouldEqual, StatusFailed)
			So(state.ErrorInfo, ShouldEqual, "step exploded")
		})
	})
}
