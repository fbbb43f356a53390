// Package main provides localization for the keyframes CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":    "出力先",
		"Rendering": "レンダリング",
		"Input":     "入力",
		"Logging":   "ログ",

		// Root command
		"Extract keyframes from videos with ffprobe and ffmpeg": "ffprobe と ffmpeg で動画からキーフレームを抽出",

		// Extract command
		"Extract every keyframe of a video as JPEG": "動画の全キーフレームをJPEGとして抽出",

		// Version command
		"Show version information": "バージョン情報を表示",
		"keyframes version %s":     "keyframes バージョン %s",

		// Output flags
		"Directory for keyframe JPEG files":                  "キーフレームJPEGの出力ディレクトリ",
		"Write a contact sheet JPEG to this file":            "コンタクトシートJPEGの出力ファイル",
		"Contact sheet columns":                              "コンタクトシートのカラム数",
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",

		// Rendering flags
		"Keyframe width (-1 keeps the source size)":  "キーフレームの幅（-1 で元のサイズ）",
		"Keyframe height (-1 keeps the source size)": "キーフレームの高さ（-1 で元のサイズ）",
		"Concurrent ffmpeg renders":                  "ffmpeg の同時レンダリング数",
		"Per-render timeout in seconds":              "レンダリングごとのタイムアウト秒数",

		// Input flags
		"Read the video from standard input": "標準入力から動画を読み込む",
		"YAML configuration file":            "YAML設定ファイル",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Log format (console, text, json)":     "ログ形式（console, text, json）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Runtime messages
		"Output saved to %s":  "出力を %s に保存しました",
		"Summary saved to %s": "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",
		"Error: %s":           "エラー: %s",

		// Error messages
		"Exactly one video argument is required": "動画の引数を1つだけ指定してください",

		// Summary content
		"Keyframe Extraction Summary": "キーフレーム抽出サマリー",
		"Job":                         "ジョブ",
		"Job ID":                      "ジョブID",
		"Elapsed":                     "所要時間",
		"Source":                      "ソース",
		"Container":                   "コンテナ",
		"Codec":                       "コーデック",
		"Resolution":                  "解像度",
		"Duration":                    "再生時間",
		"Frames":                      "フレーム",
		"Metric":                      "項目",
		"Value":                       "値",
		"Keyframes identified":        "検出キーフレーム数",
		"Keyframes rendered":          "レンダリング済みキーフレーム数",
		"Failed renders":              "レンダリング失敗数",
		"Image data":                  "画像データ量",
		"Failures":                    "失敗",
		"Settings":                    "設定",
		"Workers":                     "ワーカー数",
		"Quality":                     "品質",
		"Size":                        "サイズ",
		"source":                      "元のサイズ",
		"Timestamp field":             "タイムスタンプ項目",
		"Render timeout":              "レンダリングタイムアウト",
		"Outputs":                     "出力",
		"Contact sheet":               "コンタクトシート",
		"Generated at":                "生成日時",
	})
}
