package ir

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// Snapshot tests pin the full listings of representative programs so
// accidental changes to lowering show up as reviewable diffs.

func TestListingSnapshotHello(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			print("hi");
		} }
	`)
	snaps.MatchSnapshot(t, FormatListing(module.Instructions()))
}

func TestListingSnapshotControlFlow(t *testing.T) {
	module := compile(t, `
		class Main { public static void main(String[] args) {
			int i = 0;
			while (i < 3) {
				if (i == 1) { print("one"); } else { print(i); }
				i = i + 1;
			}
		} }
	`)
	snaps.MatchSnapshot(t, FormatListing(module.Instructions()))
}

func TestListingSnapshotObjects(t *testing.T) {
	module := compile(t, `
		class Point {
			int x;
			int y;
			public void move(int dx, int dy) {
				x = x + dx;
				y = y + dy;
			}
			public int sum() { return x + y; }
		}
		class Main { public static void main(String[] args) {
			Point p = new Point();
			p.move(3, 4);
			print(p.sum());
		} }
	`)
	snaps.MatchSnapshot(t, FormatListing(module.Instructions()))
}
