package diffcov

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDiff = `diff --git a/lib/a.dart b/lib/a.dart
index 3b18e51..a9c2d3e 100644
--- a/lib/a.dart
+++ b/lib/a.dart
@@ -3,0 +4,2 @@ class A {
+  int x;
+  int y;
@@ -10 +12 @@ void run() {
-  old();
+  current();
diff --git a/lib/gone.dart b/lib/gone.dart
deleted file mode 100644
--- a/lib/gone.dart
+++ /dev/null
@@ -1,2 +0,0 @@
-a
-b
diff --git a/lib/b.dart b/lib/b.dart
--- a/lib/b.dart
+++ b/lib/b.dart
@@ -5,3 +5,3 @@
 keep
-drop
+add
 keep
@@ -20,1 +19,0 @@
-removed
`

func TestParseUnifiedDiff(t *testing.T) {
	changes := ParseUnifiedDiff(sampleDiff)

	assert.Equal(t, map[string][]int{
		"lib/a.dart": {4, 5, 12},
		"lib/b.dart": {6},
	}, changes)
}

func TestParseUnifiedDiff_OnlyRemovals(t *testing.T) {
	changes := ParseUnifiedDiff("--- a/x.go\n+++ b/x.go\n@@ -2 +1,0 @@\n-gone\n")
	assert.Equal(t, map[string][]int{"x.go": {}}, changes)
}

func TestParseUnifiedDiff_Empty(t *testing.T) {
	assert.Empty(t, ParseUnifiedDiff(""))
}
