package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Extracting keyframes from %s":         "%s からキーフレームを抽出中",
		"Job %s started":                       "ジョブ %s を開始しました",
		"Job %s finished: %d frames, %d failed": "ジョブ %s 完了: %d フレーム, 失敗 %d",
		"Job %s failed: %s":                    "ジョブ %s が失敗しました: %s",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",
		"Container: %s, codec %s, %.1f s":      "コンテナ: %s, コーデック %s, %.1f 秒",
		"Container inspection skipped: %s":      "コンテナ検査をスキップ: %s",

		// Resolve stage
		"Using input file %s":              "入力ファイル %s を使用",
		"Persisted %d byte buffer to %s":   "%d バイトのバッファを %s に保存しました",

		// Workspace
		"Created workspace %s":             "作業ディレクトリ %s を作成しました",
		"Removed workspace %s":             "作業ディレクトリ %s を削除しました",
		"Failed to remove workspace %s: %s": "作業ディレクトリ %s の削除に失敗しました: %s",
		"Failed to remove input file %s: %s": "入力ファイル %s の削除に失敗しました: %s",

		// Probe stage
		"Starting metadata stream for %s":  "%s のメタデータストリームを開始",
		"Keyframe at %.3f s":               "キーフレーム %.3f 秒",
		"Skipping keyframe line %q: %s":    "キーフレーム行 %q をスキップ: %s",
		"Metadata stream closed: %d keyframes": "メタデータストリーム終了: %d キーフレーム",
		"Metadata process failed: %s":      "メタデータプロセスが失敗しました: %s",
		"Dropping truncated line after read error": "読み込みエラーのため途中の行を破棄しました",

		// Render stage
		"Rendering %.3f s to %s":               "%.3f 秒を %s にレンダリング中",
		"Rendered %.3f s (%d bytes)":           "%.3f 秒をレンダリングしました (%d バイト)",
		"Render at %.3f s failed: %s":          "%.3f 秒のレンダリングに失敗しました: %s",
		"Untracked render at %.3f s: %s":         "%.3f 秒のレンダリングが追跡されていません: %s",
		"Render scheduler started with %d workers": "%d ワーカーでレンダリングを開始",

		// Contact sheet stage
		"Composing contact sheet from %d frames": "%d フレームからコンタクトシートを作成中",
		"Contact sheet composed: %dx%d":          "コンタクトシート作成完了: %dx%d",

		// Errors
		"Failed to save frame %d: %s":      "フレーム %d の保存に失敗しました: %s",
		"Failed to write output: %s":       "出力の書き込みに失敗しました: %s",
	})
}
